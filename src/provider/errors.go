package provider

import (
	"errors"
	"fmt"
	"net/http"

	"cancelbot/src/httpclient"
)

// Kinds of UserError returned by WrapError.
var (
	ErrAuthFailed   = errors.New("authentication failed")
	ErrRepoNotFound = errors.New("repository not found")
)

// tokenHints names the flag and environment variable carrying each backend's token.
var tokenHints = map[string]string{
	Travis:   "--travis / TRAVIS_TOKEN",
	AppVeyor: "--appveyor / APPVEYOR_TOKEN",
	Azure:    "--azure-pipelines-token / AZURE_PIPELINES_TOKEN",
}

// UserError wraps errors with user-friendly messages.
// Kind, when set, is one of the sentinels above and matches with errors.Is.
type UserError struct {
	Kind    error
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Kind, e.Err} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// WrapError converts backend API errors to user-friendly messages
func WrapError(backend string, err error) error {
	if err == nil {
		return nil
	}

	status := 0
	var statusErr *httpclient.HTTPStatusError
	if errors.As(err, &statusErr) {
		status = statusErr.StatusCode
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		hint := "Check that the API token is valid and has permission to cancel builds."
		if flag, ok := tokenHints[backend]; ok {
			hint += "\n  - " + backend + ": " + flag
		}
		return &UserError{
			Kind:    ErrAuthFailed,
			Message: "Authentication failed",
			Hint:    hint,
			Err:     err,
		}
	}

	if status == http.StatusNotFound {
		return &UserError{
			Kind:    ErrRepoNotFound,
			Message: "Repository not found",
			Hint: "Check that the repository is set up on " + backend +
				" and that the account/organization override is correct.",
			Err: err,
		}
	}

	return err
}
