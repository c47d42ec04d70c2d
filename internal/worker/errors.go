package worker

import (
	"errors"
	"fmt"

	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	quotadomain "github.com/smallbiznis/scriptly/internal/quota/domain"
)

// permanentError marks a failure that retrying cannot fix. The pool
// fails the job immediately instead of burning the remaining attempts.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

func permanentf(format string, args ...any) error {
	return &permanentError{err: fmt.Errorf(format, args...)}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// failureReason labels terminal failures for metrics and logs.
func failureReason(err error) string {
	switch {
	case errors.Is(err, quotadomain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, postdomain.ErrPostNotFound),
		errors.Is(err, publicationdomain.ErrPublicationNotFound):
		return "not_found"
	case isPermanent(err):
		return "permanent"
	default:
		return "max_attempts"
	}
}
