package http

import (
	"errors"
	"net/http"

	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidID            = "invalid_id"
	codeVolumeNotFound       = "volume_not_found"
	codeBorrowerNotFound     = "borrower_not_found"
	codeLoanNotFound         = "loan_not_found"
	codeTitleNotFound        = "title_not_found"
	codeGroupNotFound        = "group_not_found"
	codeNotLoanable          = "not_loanable"
	codeAlreadyLoaned        = "already_loaned"
	codeAlreadyReturned      = "already_returned"
	codeLoanReturned         = "loan_returned"
	codeExtensionLimit       = "extension_limit_reached"
	codeVolumeOnLoan         = "volume_on_loan"
	codeInvalidCondition     = "invalid_condition"
	codeEmptyUpdate          = "empty_update"
	codeInvalidDuration      = "invalid_duration"
	codeBarcodeTaken         = "barcode_taken"
	codeCopyNumberTaken      = "copy_number_taken"
	codeGroupAlreadyExists   = "group_already_exists"
	codeForbidden            = "forbidden"
	codeStoreUnavailable     = "store_unavailable"
	codeInternalError        = "internal_error"
)

// messageStoreFailure is the public message for any non-domain error.
const messageStoreFailure = "database error"

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorDetails(w, status, code, msg, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := jsonAPI.Marshal(errorResponse{
		Error:   msg,
		Code:    code,
		Details: details,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrVolumeNotFound, http.StatusNotFound, codeVolumeNotFound},
	{domain.ErrBorrowerNotFound, http.StatusNotFound, codeBorrowerNotFound},
	{domain.ErrLoanNotFound, http.StatusNotFound, codeLoanNotFound},
	{domain.ErrTitleNotFound, http.StatusNotFound, codeTitleNotFound},
	{domain.ErrGroupNotFound, http.StatusNotFound, codeGroupNotFound},
	{domain.ErrNotLoanable, http.StatusBadRequest, codeNotLoanable},
	{domain.ErrAlreadyLoaned, http.StatusBadRequest, codeAlreadyLoaned},
	{domain.ErrAlreadyReturned, http.StatusBadRequest, codeAlreadyReturned},
	{domain.ErrCannotExtendReturned, http.StatusBadRequest, codeLoanReturned},
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrInvalidCondition, http.StatusBadRequest, codeInvalidCondition},
	{domain.ErrEmptyUpdate, http.StatusBadRequest, codeEmptyUpdate},
	{domain.ErrTitleRequired, http.StatusBadRequest, codeMissingRequiredField},
	{domain.ErrNameRequired, http.StatusBadRequest, codeMissingRequiredField},
	{domain.ErrBarcodeRequired, http.StatusBadRequest, codeMissingRequiredField},
	{domain.ErrInvalidDuration, http.StatusBadRequest, codeInvalidDuration},
	{domain.ErrExtensionLimitReached, http.StatusConflict, codeExtensionLimit},
	{domain.ErrVolumeOnLoan, http.StatusConflict, codeVolumeOnLoan},
	{domain.ErrBarcodeTaken, http.StatusConflict, codeBarcodeTaken},
	{domain.ErrCopyNumberTaken, http.StatusConflict, codeCopyNumberTaken},
	{domain.ErrGroupAlreadyExists, http.StatusConflict, codeGroupAlreadyExists},
}

// Responder turns service errors into the JSON error envelope. Anything that
// is not a domain error is reported as a store failure and logged.
type Responder struct {
	log           *zap.Logger
	exposeDetails bool
}

func NewResponder(logger *zap.Logger, exposeDetails bool) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{log: logger, exposeDetails: exposeDetails}
}

func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			writeError(w, de.status, de.code, de.err.Error())
			return
		}
	}

	reqID := middleware.GetReqID(r.Context())
	rs.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", reqID),
		zap.Error(err),
	)

	var details map[string]any
	if rs.exposeDetails {
		details = map[string]any{"reason": err.Error()}
		if reqID != "" {
			details["request_id"] = reqID
		}
	}
	writeErrorDetails(w, http.StatusInternalServerError, codeInternalError, messageStoreFailure, details)
}
