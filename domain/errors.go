package domain

import (
	"fmt"
	"strings"
)

// ConfigurationError means a required credential or setting is absent.
// It is raised before any network call is attempted.
type ConfigurationError struct {
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Name)
}

// UpstreamError is a non-success status code or malformed response from one
// of the three external services.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream error (%d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Service, e.Message)
}

// SchemaError means a generated payload failed structural or semantic
// validation. The message identifies the first failing check.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message
}

// SchemaIncompleteError means the record store's discovered schema lacks
// required properties. Every missing property is named.
type SchemaIncompleteError struct {
	Missing []string
}

func (e *SchemaIncompleteError) Error() string {
	return fmt.Sprintf("record store is missing required properties: %s", strings.Join(e.Missing, ", "))
}

// TimeoutError covers an explicit request timeout or the video polling
// attempt cap.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	return e.Message
}
