package process

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kostush/purchase-gateway-sub009/internal/biller"
	"github.com/kostush/purchase-gateway-sub009/internal/domain"
	"github.com/kostush/purchase-gateway-sub009/internal/session"
)

// Kind is the stable business classification of a handler failure. The HTTP
// and recovery behavior of every kind lives on the Error itself, so rendering
// is a single switch-free mapping instead of scattered type assertions.
type Kind string

const (
	KindSessionNotFound             Kind = "session_not_found"
	KindSessionAlreadyProcessed     Kind = "session_already_processed"
	KindDuplicatedRequest           Kind = "duplicated_purchase_process_request"
	KindMissingRedirectURL          Kind = "missing_redirect_url"
	KindTransactionAlreadyProcessed Kind = "transaction_already_processed"
	KindBillerMapping               Kind = "biller_mapping_failure"
	KindBinRoutingAPI               Kind = "bin_routing_api_failure"
	KindBinRoutingError             Kind = "bin_routing_error_response"
	KindBinRoutingType              Kind = "bin_routing_unexpected_response"
	KindUnsupportedPaymentMethod    Kind = "unsupported_payment_method"
	KindInternal                    Kind = "internal_error"
)

// NextAction tells the client how to recover without manual intervention.
type NextAction string

const (
	NextActionRestartProcess NextAction = "restartProcess"
	NextActionFinishProcess  NextAction = "finishProcess"
	NextActionRenderGateway  NextAction = "renderGateway"
	NextActionAuthenticate3D NextAction = "authenticate3D"
	NextActionRedirectToURL  NextAction = "redirectToUrl"
)

// Error is the tagged business error surfaced by command handlers.
type Error struct {
	Kind               Kind
	Message            string
	HTTPStatus         int
	NextAction         NextAction // empty when no recovery hint applies
	IncrementsAttempts bool       // bump the gateway submit counter before surfacing
	RedirectURL        string     // set for already-processed replays
	cause              error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func sessionNotFound(sessionID string, cause error) *Error {
	return &Error{
		Kind:       KindSessionNotFound,
		Message:    "session " + sessionID + " not found",
		HTTPStatus: http.StatusNotFound,
		NextAction: NextActionRestartProcess,
		cause:      cause,
	}
}

func duplicatedRequest(sessionID string, cause error) *Error {
	return &Error{
		Kind:       KindDuplicatedRequest,
		Message:    "purchase process for session " + sessionID + " is already being handled",
		HTTPStatus: http.StatusConflict,
		cause:      cause,
	}
}

func alreadyProcessed(redirectURL string) *Error {
	return &Error{
		Kind:        KindSessionAlreadyProcessed,
		Message:     "session has already been processed",
		HTTPStatus:  http.StatusBadRequest,
		RedirectURL: redirectURL,
	}
}

func missingRedirectURL(cause error) *Error {
	return &Error{
		Kind:       KindMissingRedirectURL,
		Message:    "no redirect url stored for session",
		HTTPStatus: http.StatusBadRequest,
		NextAction: NextActionRestartProcess,
		cause:      cause,
	}
}

func transactionAlreadyProcessed(cause error) *Error {
	return &Error{
		Kind:               KindTransactionAlreadyProcessed,
		Message:            "transaction was already processed at the biller",
		HTTPStatus:         http.StatusBadRequest,
		NextAction:         NextActionRestartProcess,
		IncrementsAttempts: true,
		cause:              cause,
	}
}

func billerMapping(cause error) *Error {
	return &Error{
		Kind:       KindBillerMapping,
		Message:    "biller mapping could not be retrieved",
		HTTPStatus: http.StatusInternalServerError,
		cause:      cause,
	}
}

func unsupportedPaymentMethod(billerName, method string) *Error {
	return &Error{
		Kind:       KindUnsupportedPaymentMethod,
		Message:    fmt.Sprintf("biller %s does not accept payment method %s", billerName, method),
		HTTPStatus: http.StatusBadRequest,
	}
}

func internal(message string, cause error) *Error {
	return &Error{
		Kind:       KindInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		cause:      cause,
	}
}

// translate maps collaborator and domain errors onto tagged errors. Errors
// already tagged pass through unchanged.
func translate(sessionID string, err error) *Error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}

	var processed *domain.AlreadyProcessedError
	if errors.As(err, &processed) {
		return alreadyProcessed(processed.RedirectURL)
	}

	switch {
	case errors.Is(err, session.ErrNotFound):
		// Deliberate translation: the lower-level "init purchase info not
		// found" never leaks; the external contract is session-not-found.
		return sessionNotFound(sessionID, err)
	case errors.Is(err, session.ErrAlreadyProcessing):
		return duplicatedRequest(sessionID, err)
	case errors.Is(err, domain.ErrMissingRedirectURL):
		return missingRedirectURL(err)
	case errors.Is(err, biller.ErrTransactionAlreadyProcessed):
		return transactionAlreadyProcessed(err)
	case errors.Is(err, biller.ErrRoutingAPI):
		return &Error{Kind: KindBinRoutingAPI, Message: "bin routing service failed", HTTPStatus: http.StatusInternalServerError, cause: err}
	case errors.Is(err, biller.ErrRoutingResponse):
		return &Error{Kind: KindBinRoutingError, Message: "bin routing service rejected the request", HTTPStatus: http.StatusBadRequest, cause: err}
	case errors.Is(err, biller.ErrRoutingType):
		return &Error{Kind: KindBinRoutingType, Message: "bin routing service returned an unexpected response", HTTPStatus: http.StatusInternalServerError, cause: err}
	}

	var mapping *biller.MappingError
	if errors.As(err, &mapping) {
		return billerMapping(err)
	}

	return internal("purchase process failed", err)
}
