package extractor

// ErrorKind classifies extraction failures for callers that need to map them
// to a transport status. Message carries the user-facing text.
type ErrorKind int

const (
	// KindValidation is a malformed or out-of-range page specification.
	KindValidation ErrorKind = iota
	// KindLoad means the source bytes could not be loaded as a document.
	KindLoad
	// KindBuild is an unexpected failure while building or serializing the
	// output document.
	KindBuild
	// KindBusy means another extraction is in flight for the same session.
	KindBusy
	// KindUnavailable means the document collaborators are not wired up.
	KindUnavailable
)

// Error is the only error type Extract returns. Message is safe to show to
// the user verbatim; Err retains the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

const (
	msgEncrypted   = "This PDF is password-protected. Remove the password and try again."
	msgCorrupt     = "The file is not a valid PDF or is corrupted. Please choose a different file."
	msgBuild       = "An unexpected error occurred during PDF processing. Please try again."
	msgBusy        = "Another extraction is already in progress for this session."
	msgUnavailable = "PDF processing is currently unavailable. Please try again later."
)
