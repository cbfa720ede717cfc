package http

import (
	"context"
	"net/http"

	"github.com/cimillas/shelfkeeper/internal/app"
	"github.com/cimillas/shelfkeeper/internal/domain"
)

// CatalogAdmin is the minimal interface needed for the admin catalog endpoints.
type CatalogAdmin interface {
	CreateTitle(ctx context.Context, in app.CreateTitleInput) (domain.Title, error)
	CreateVolume(ctx context.Context, in app.CreateVolumeInput) (domain.Volume, error)
	CreateBorrowerGroup(ctx context.Context, in app.CreateGroupInput) (domain.BorrowerGroup, error)
	ListBorrowerGroups(ctx context.Context) ([]domain.BorrowerGroup, error)
	CreateBorrower(ctx context.Context, in app.CreateBorrowerInput) (domain.Borrower, error)
}

type adminHandlers struct {
	svc  CatalogAdmin
	resp *Responder
}

func (h adminHandlers) createTitle(w http.ResponseWriter, r *http.Request) {
	var req createTitleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	title, err := h.svc.CreateTitle(r.Context(), app.CreateTitleInput{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, titleResponse{
		ID:        title.ID,
		Title:     title.Title,
		Author:    title.Author,
		ISBN:      title.ISBN,
		CreatedAt: title.CreatedAt.Unix(),
	})
}

func (h adminHandlers) createVolume(w http.ResponseWriter, r *http.Request) {
	var req createVolumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	v, err := h.svc.CreateVolume(r.Context(), app.CreateVolumeInput{
		TitleID:       req.TitleID,
		Barcode:       req.Barcode,
		CopyNumber:    req.CopyNumber,
		Condition:     domain.Condition(req.Condition),
		LocationID:    req.LocationID,
		ReferenceOnly: req.ReferenceOnly,
		Notes:         req.Notes,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVolume(v))
}

func (h adminHandlers) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListBorrowerGroups(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroup(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h adminHandlers) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	g, err := h.svc.CreateBorrowerGroup(r.Context(), app.CreateGroupInput{
		Name:             req.Name,
		LoanDurationDays: req.LoanDurationDays,
		Description:      req.Description,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroup(g))
}

func (h adminHandlers) createBorrower(w http.ResponseWriter, r *http.Request) {
	var req createBorrowerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	b, err := h.svc.CreateBorrower(r.Context(), app.CreateBorrowerInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		GroupID: req.GroupID,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, borrowerResponse{
		ID:      b.ID,
		Name:    b.Name,
		Email:   b.Email,
		Phone:   b.Phone,
		GroupID: b.GroupID,
	})
}

type createTitleRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type titleResponse struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	ISBN      *string `json:"isbn"`
	CreatedAt int64   `json:"created_at"`
}

type createVolumeRequest struct {
	TitleID       string  `json:"title_id"`
	Barcode       string  `json:"barcode"`
	CopyNumber    int     `json:"copy_number"`
	Condition     string  `json:"condition"`
	LocationID    *string `json:"location_id"`
	ReferenceOnly bool    `json:"reference_only"`
	Notes         string  `json:"notes"`
}

type createGroupRequest struct {
	Name             string `json:"name"`
	LoanDurationDays int    `json:"loan_duration_days"`
	Description      string `json:"description"`
}

type groupResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	LoanDurationDays int    `json:"loan_duration_days"`
	Description      string `json:"description"`
}

func toGroup(g domain.BorrowerGroup) groupResponse {
	return groupResponse{
		ID:               g.ID,
		Name:             g.Name,
		LoanDurationDays: g.LoanDurationDays,
		Description:      g.Description,
	}
}

type createBorrowerRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	GroupID *string `json:"group_id"`
}

type borrowerResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	GroupID *string `json:"group_id"`
}
