package analysis

import "errors"

// ErrBackoff is wrapped into AnalysisError while the gateway is failing fast
var ErrBackoff = errors.New("in backoff period after consecutive failures")

// AnalysisError is returned when the inference backend rejects or fails a request.
// The session recovers from it into its error phase.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return "analysis failed: " + e.Err.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
