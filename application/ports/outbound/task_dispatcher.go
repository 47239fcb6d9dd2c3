package outbound

// TaskDispatcher runs a function on a worker pool. Satisfied by *ants.Pool.
type TaskDispatcher interface {
	Submit(task func()) error
}
