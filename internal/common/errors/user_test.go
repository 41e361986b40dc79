package errors

import (
	"errors"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limit with hint",
			err:  RateLimitError("ServiceTitan rate limit exceeded", 30),
			want: "ServiceTitan rate limit reached. Try again in 30 seconds.",
		},
		{
			name: "rate limit without hint",
			err:  RateLimitError("ServiceTitan rate limit exceeded", -1),
			want: "ServiceTitan rate limit reached.",
		},
		{
			name: "auth error",
			err:  AuthError("ServiceTitan rejected the access token; credentials may have been revoked"),
			want: "Unable to connect to ServiceTitan — authentication issue. Check credentials.",
		},
		{
			name: "not found",
			err:  NotFoundError("resource"),
			want: "The requested data was not found in ServiceTitan.",
		},
		{
			name: "api error with status",
			err:  APIError(502, "ServiceTitan server error"),
			want: "ServiceTitan API error (HTTP 502). Please try again.",
		},
		{
			name: "api error without status",
			err:  APIError(0, "ServiceTitan returned a non-JSON response"),
			want: "ServiceTitan API error. Please try again.",
		},
		{
			name: "validation shows only its own message",
			err:  ValidationError("start_date must be YYYY-MM-DD"),
			want: "Invalid input: start_date must be YYYY-MM-DD",
		},
		{
			name: "read only collapses to generic",
			err:  ReadOnlyViolation("POST"),
			want: "An unexpected error occurred. Please try again.",
		},
		{
			name: "plain error collapses to generic",
			err:  errors.New("panic: runtime error at client.go:42"),
			want: "An unexpected error occurred. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
