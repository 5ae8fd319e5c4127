package http

import (
	"encoding/json"
	"net/http"

	"github.com/opentix/ledger/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeUsernameRequired   = "username_required"
	codePasswordRequired   = "password_required"
	codeAnonymousCaller    = "anonymous_caller"
	codeInvalidRole        = "invalid_role"
	codeAmountRequired     = "amount_required"
	codeAccountNotFound    = "account_not_found"
	codeEventNotFound      = "event_not_found"
	codeInvalidID          = "invalid_id"
	codeNotOrganizer       = "not_organizer"
	codeNotEventOwner      = "not_event_owner"
	codeBalanceTooLow      = "balance_too_low"
	codeSoldOut            = "sold_out"
	codePasswordMismatch   = "password_mismatch"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

var domainErrorCodes = map[error]struct {
	status int
	code   string
}{
	domain.ErrUsernameRequired: {http.StatusBadRequest, codeUsernameRequired},
	domain.ErrPasswordRequired: {http.StatusBadRequest, codePasswordRequired},
	domain.ErrInvalidRole:      {http.StatusBadRequest, codeInvalidRole},
	domain.ErrAmountRequired:   {http.StatusBadRequest, codeAmountRequired},
	domain.ErrAnonymousCaller:  {http.StatusForbidden, codeAnonymousCaller},
	domain.ErrNotOrganizer:     {http.StatusForbidden, codeNotOrganizer},
	domain.ErrNotEventOwner:    {http.StatusForbidden, codeNotEventOwner},
	domain.ErrPasswordMismatch: {http.StatusUnauthorized, codePasswordMismatch},
	domain.ErrAccountNotFound:  {http.StatusNotFound, codeAccountNotFound},
	domain.ErrEventNotFound:    {http.StatusNotFound, codeEventNotFound},
	domain.ErrInvalidID:        {http.StatusNotFound, codeInvalidID},
	domain.ErrBalanceTooLow:    {http.StatusConflict, codeBalanceTooLow},
	domain.ErrSoldOut:          {http.StatusConflict, codeSoldOut},
}

// writeDomainError surfaces ledger errors verbatim with a stable code;
// anything unmapped is an internal failure the caller should not see.
func writeDomainError(w http.ResponseWriter, err error) {
	if m, ok := domainErrorCodes[err]; ok {
		writeError(w, m.status, m.code, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
