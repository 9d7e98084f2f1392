package httprpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

type errorBody struct {
	Error *errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type bindingRequest struct {
	Address string `json:"address"`
}

type bindingResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type namesResponse struct {
	Names []string `json:"names"`
}

type registerRequest struct {
	ID   uuid.UUID `json:"id"`
	Sink string    `json:"sink"`
}

type registerResponse struct {
	ID uuid.UUID `json:"id"`
}

type sourceRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

const (
	codeGone     = "gone"
	codeBadInput = "bad_request"
	codeRejected = "rejected"
)

// errorCodes is matched in order, so more specific errors come first.
var errorCodes = []struct {
	code   string
	status int
	err    error
}{
	{"not_bound", http.StatusNotFound, registry.ErrNotBound},
	{"already_bound", http.StatusConflict, registry.ErrAlreadyBound},
	{"empty_name", http.StatusBadRequest, registry.ErrEmptyName},
	{"empty_address", http.StatusBadRequest, registry.ErrEmptyAddress},
	{"backend", http.StatusServiceUnavailable, registry.ErrBackend},
	{"not_registered", http.StatusNotFound, transport.ErrNotRegistered},
	{"not_found", http.StatusNotFound, transport.ErrNotFound},
	{"unreachable", http.StatusBadGateway, transport.ErrUnreachable},
	{"wrong_kind", http.StatusBadRequest, transport.ErrWrongKind},
	{"closed", http.StatusConflict, transport.ErrClosed},
}

// encodeError maps err to a status code and wire detail.
func encodeError(err error) (int, *errorDetail) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.status, &errorDetail{Code: c.code, Message: err.Error()}
		}
	}
	return http.StatusUnprocessableEntity, &errorDetail{Code: codeRejected, Message: err.Error()}
}

// decodeError rebuilds an error from a non-2xx response body.
func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == nil {
		return statusError(status, string(body))
	}

	msg := errors.New(eb.Error.Message)
	switch eb.Error.Code {
	case codeGone:
		return errors.Join(transport.ErrUnreachable, msg)
	case "closed":
		return errors.Join(transport.ErrRejected, transport.ErrClosed, msg)
	case codeBadInput, codeRejected:
		return errors.Join(transport.ErrRejected, msg)
	}
	for _, c := range errorCodes {
		if c.code == eb.Error.Code {
			return errors.Join(c.err, msg)
		}
	}
	return statusError(status, eb.Error.Message)
}

func statusError(status int, msg string) error {
	err := fmt.Errorf("http %d: %s", status, msg)
	switch status {
	case http.StatusGone, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errors.Join(transport.ErrUnreachable, err)
	}
	return errors.Join(transport.ErrRejected, err)
}
