package domain

import "errors"

// Error kinds from the dispatch engine's taxonomy. The Kernel and the
// HTTP controllers map these to HTTP status codes; the layers below
// them only return them.
var (
	// ErrCancelled is the distinguished marker a task handler returns
	// to request graceful cancellation. It never reaches a caller of
	// Queue.Dispatch or an HTTP response; Job.Run intercepts it.
	ErrCancelled = errors.New("job cancelled")

	// ErrTaskNotFound is raised by Queue.Dispatch when the task name is
	// unregistered.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNotFound is raised by Router.Find when no route matches.
	ErrNotFound = errors.New("route not found")

	// ErrQueueNotFound names a missing queue. State.Queue creates a
	// queue on first access and never returns it; controllers answer
	// an unknown queue with a 404 after State.QueueExists.
	ErrQueueNotFound = errors.New("queue not found")
)

// ParseError covers malformed route templates (duplicate parameter
// names) and malformed bearer tokens.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

func NewParseError(msg string) error { return &ParseError{Message: msg} }

// SignatureError is raised by Token verification on an HMAC mismatch
// or a revoked token.
type SignatureError struct {
	Message string
}

func (e *SignatureError) Error() string { return e.Message }

func NewSignatureError(msg string) error { return &SignatureError{Message: msg} }

// CipherError covers any symmetric-encryption failure: bad key, bad
// IV, or a tampered ciphertext.
type CipherError struct {
	Message string
}

func (e *CipherError) Error() string { return e.Message }

func NewCipherError(msg string) error { return &CipherError{Message: msg} }
