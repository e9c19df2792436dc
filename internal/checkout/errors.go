package checkout

import "net/http"

// Customer-facing messages are localized in French, matching the storefront.
const genericFailureMessage = "Une erreur est survenue. Veuillez réessayer plus tard."

// Error carries the HTTP status the handler should answer with and a message
// safe to show the customer. Err keeps the underlying cause for logs.
type Error struct {
	Status  int
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

func invalidInput(reason, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Reason: reason, Message: message}
}

func rateLimited(reason string) *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Reason:  reason,
		Message: "Trop de demandes. Veuillez réessayer plus tard.",
	}
}

func internalError(reason string, err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Reason:  reason,
		Message: genericFailureMessage,
		Err:     err,
	}
}

func notFound(reason string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Reason:  reason,
		Message: "Commande introuvable.",
	}
}
