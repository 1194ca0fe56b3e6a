package requests

import (
	"errors"
	"net/http"

	"imsidesk/internal/auth"
	"imsidesk/internal/domain/imsi"
	"imsidesk/internal/domain/request"
	"imsidesk/internal/provider/base"

	"github.com/rs/zerolog/log"
)

// Notifier shows success toasts
type Notifier interface {
	Success(msg string)
}

// Reporter surfaces failed operations to the operator
type Reporter interface {
	Error(op string, err error)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(msg string)

func (f NotifierFunc) Success(msg string) { f(msg) }

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(op string, err error)

func (f ReporterFunc) Error(op string, err error) { f(op, err) }

type logNotifier struct{}

func (logNotifier) Success(msg string) {
	log.Info().Str("notice", msg).Msg("operation succeeded")
}

type logReporter struct{}

func (logReporter) Error(op string, err error) {
	log.Error().Err(err).Str("op", op).Str("shown", Describe(err)).Msg("operation failed")
}

// Describe turns an error into the message shown to the operator
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var verrs imsi.ValidationErrors
	if errors.As(err, &verrs) {
		return "Please correct the highlighted fields"
	}
	if errors.Is(err, auth.ErrLoggedOut) {
		return "Your session has expired, please log in again"
	}
	if errors.Is(err, auth.ErrNoOperatorRole) {
		return "Your account is not linked to a mobile network operator"
	}
	if errors.Is(err, request.ErrCountryCodeMismatch) {
		return "The selected number does not belong to this operator's country code"
	}

	var apiErr *base.APIError
	if !errors.As(err, &apiErr) {
		return "Something went wrong, please try again"
	}
	switch {
	case apiErr.Code == base.ErrNetwork:
		return "Unable to reach the server, please check your connection"
	case apiErr.Code == base.ErrResponseFormat:
		return "The server sent an unexpected response"
	case apiErr.Status == http.StatusUnauthorized, apiErr.Status == http.StatusForbidden:
		return "You are not authorized to perform this action"
	case apiErr.Status == http.StatusNotFound:
		return "The requested resource was not found"
	case apiErr.Status >= 500:
		return "The server encountered an error, please try again later"
	case apiErr.Message != "" && apiErr.Message != http.StatusText(apiErr.Status):
		return apiErr.Message
	default:
		return "The request could not be completed"
	}
}
