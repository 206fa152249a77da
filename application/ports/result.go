package ports

// Result carries the outcome of an asynchronous operation over a channel.
// Exactly one of Value and Err is meaningful.
type Result[V any] struct {
	Value V
	Err   error
}
