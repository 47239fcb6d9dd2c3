package dto

type TagUpdateRequest struct {
	Tag string `json:"tag" binding:"required"`
}

type NotesUpdateRequest struct {
	Notes string `json:"notes"`
}
