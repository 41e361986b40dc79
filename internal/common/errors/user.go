package errors

import "fmt"

// UserMessage converts any error into the single line shown to the caller.
// Raw error text, stack traces, and upstream response bodies never pass
// through here; only the closed taxonomy maps to specific wording and
// everything else collapses to a generic message.
func UserMessage(err error) string {
	appErr, ok := err.(*AppError)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch appErr.Type {
	case ErrTypeRateLimit:
		msg := "ServiceTitan rate limit reached."
		if hint, ok := RetryAfterHint(appErr); ok && hint > 0 {
			msg += fmt.Sprintf(" Try again in %d seconds.", hint)
		}
		return msg
	case ErrTypeAuth:
		return "Unable to connect to ServiceTitan — authentication issue. Check credentials."
	case ErrTypeNotFound:
		return "The requested data was not found in ServiceTitan."
	case ErrTypeAPI:
		if appErr.StatusCode != 0 {
			return fmt.Sprintf("ServiceTitan API error (HTTP %d). Please try again.", appErr.StatusCode)
		}
		return "ServiceTitan API error. Please try again."
	case ErrTypeValidation:
		return fmt.Sprintf("Invalid input: %s", appErr.Message)
	default:
		return "An unexpected error occurred. Please try again."
	}
}
