package scanner

import "github.com/pkg/errors"

var (
	// ErrDuplicateStart is returned by Start while a scan is in progress.
	ErrDuplicateStart = errors.New("scan already in progress")
	// ErrRadioUnavailable matches any *RadioError.
	ErrRadioUnavailable = errors.New("radio unavailable")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("session closed")
)

// RadioError reports that the radio could not scan. Start returns it when the
// radio cannot begin; Scan.Err holds it when the radio stopped mid-scan. The
// session does not retry either way.
type RadioError struct {
	Op  string
	Err error
}

func (e *RadioError) Error() string {
	return "radio unavailable: " + e.Op + ": " + e.Err.Error()
}

func (e *RadioError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRadioUnavailable) hold for every RadioError.
func (e *RadioError) Is(target error) bool {
	return target == ErrRadioUnavailable
}
