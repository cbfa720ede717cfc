package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/shelfkeeper/internal/app"
	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/go-chi/chi/v5"
)

// LoanLedger is the part of app.LoanService the loan endpoints need.
type LoanLedger interface {
	CreateLoan(ctx context.Context, in app.CreateLoanInput) (app.CreateLoanResult, error)
	ReturnLoan(ctx context.Context, loanID string) (app.ReturnLoanResult, error)
	ExtendLoan(ctx context.Context, loanID string) (app.ExtendLoanResult, error)
	GetLoan(ctx context.Context, loanID string) (domain.LoanDetail, error)
	ListActiveLoans(ctx context.Context) ([]domain.LoanDetail, error)
	ListOverdueLoans(ctx context.Context) ([]domain.LoanDetail, error)
	ListBorrowerLoans(ctx context.Context, borrowerID string) ([]domain.LoanDetail, error)
}

type loanHandlers struct {
	svc  LoanLedger
	resp *Responder
}

func (h loanHandlers) list(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.ListActiveLoans(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDetails(loans))
}

func (h loanHandlers) listOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.ListOverdueLoans(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDetails(loans))
}

func (h loanHandlers) get(w http.ResponseWriter, r *http.Request) {
	loan, err := h.svc.GetLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDetail(loan))
}

func (h loanHandlers) listForBorrower(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.ListBorrowerLoans(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDetails(loans))
}

func (h loanHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	req.BorrowerID = strings.TrimSpace(req.BorrowerID)
	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.BorrowerID == "" || req.Barcode == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "borrower_id and barcode are required")
		return
	}

	res, err := h.svc.CreateLoan(r.Context(), app.CreateLoanInput{
		BorrowerID: req.BorrowerID,
		Barcode:    req.Barcode,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createLoanResponse{
		ID:               res.LoanID,
		DueDate:          res.DueDate.Unix(),
		LoanDurationDays: res.LoanDurationDays,
	})
}

func (h loanHandlers) returnLoan(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ReturnLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, returnLoanResponse{
		Message:    "Loan returned",
		ReturnDate: res.ReturnDate.Unix(),
	})
}

func (h loanHandlers) extend(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExtendLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extendLoanResponse{
		Message:              "Loan extended",
		NewDueDate:           res.NewDueDate.Unix(),
		ExtensionCount:       res.ExtensionCount,
		OriginalDurationDays: res.OriginalDurationDays,
	})
}

type createLoanRequest struct {
	BorrowerID string `json:"borrower_id"`
	Barcode    string `json:"barcode"`
}

type createLoanResponse struct {
	ID               string `json:"id"`
	DueDate          int64  `json:"due_date"`
	LoanDurationDays int    `json:"loan_duration_days"`
}

type returnLoanResponse struct {
	Message    string `json:"message"`
	ReturnDate int64  `json:"return_date"`
}

type extendLoanResponse struct {
	Message              string `json:"message"`
	NewDueDate           int64  `json:"new_due_date"`
	ExtensionCount       int    `json:"extension_count"`
	OriginalDurationDays int    `json:"original_duration_days"`
}

// loanDetailResponse carries every timestamp as Unix seconds.
type loanDetailResponse struct {
	ID             string  `json:"id"`
	TitleID        string  `json:"title_id"`
	VolumeID       string  `json:"volume_id"`
	BorrowerID     string  `json:"borrower_id"`
	LoanDate       int64   `json:"loan_date"`
	DueDate        int64   `json:"due_date"`
	ExtensionCount int     `json:"extension_count"`
	ReturnDate     *int64  `json:"return_date,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
	Title          string  `json:"title"`
	Barcode        string  `json:"barcode"`
	BorrowerName   string  `json:"borrower_name"`
	BorrowerEmail  *string `json:"borrower_email"`
	IsOverdue      bool    `json:"is_overdue"`
}

func toLoanDetail(l domain.LoanDetail) loanDetailResponse {
	return loanDetailResponse{
		ID:             l.ID,
		TitleID:        l.TitleID,
		VolumeID:       l.VolumeID,
		BorrowerID:     l.BorrowerID,
		LoanDate:       l.LoanDate.Unix(),
		DueDate:        l.DueDate.Unix(),
		ExtensionCount: l.ExtensionCount,
		ReturnDate:     unixOrNil(l.ReturnDate),
		Status:         string(l.Status),
		CreatedAt:      l.CreatedAt.Unix(),
		UpdatedAt:      l.UpdatedAt.Unix(),
		Title:          l.Title,
		Barcode:        l.Barcode,
		BorrowerName:   l.BorrowerName,
		BorrowerEmail:  l.BorrowerEmail,
		IsOverdue:      l.IsOverdue,
	}
}

func toLoanDetails(loans []domain.LoanDetail) []loanDetailResponse {
	out := make([]loanDetailResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, toLoanDetail(l))
	}
	return out
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	sec := t.Unix()
	return &sec
}
