package http

import (
	"context"
	"net/http"

	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/go-chi/chi/v5"
)

// VolumeCatalog is the part of app.VolumeRegistry the volume endpoints need.
type VolumeCatalog interface {
	FindByBarcode(ctx context.Context, barcode string) (domain.Volume, error)
	FindByID(ctx context.Context, id string) (domain.Volume, error)
	Update(ctx context.Context, id string, upd domain.VolumeUpdate) (domain.Volume, error)
	Delete(ctx context.Context, id string) error
}

type volumeHandlers struct {
	svc  VolumeCatalog
	resp *Responder
}

func (h volumeHandlers) byBarcode(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.FindByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVolume(v))
}

func (h volumeHandlers) byID(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVolume(v))
}

func (h volumeHandlers) update(w http.ResponseWriter, r *http.Request) {
	var req updateVolumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	upd := domain.VolumeUpdate{
		LocationID:    req.LocationID,
		ClearLocation: req.ClearLocation,
		Notes:         req.Notes,
		ReferenceOnly: req.ReferenceOnly,
	}
	if req.Condition != nil {
		c := domain.Condition(*req.Condition)
		upd.Condition = &c
	}

	v, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVolume(v))
}

func (h volumeHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateVolumeRequest has no loan_status field: unknown fields are rejected,
// so clients cannot move a volume in or out of circulation here.
type updateVolumeRequest struct {
	Condition     *string `json:"condition"`
	LocationID    *string `json:"location_id"`
	ClearLocation bool    `json:"clear_location"`
	Notes         *string `json:"notes"`
	ReferenceOnly *bool   `json:"reference_only"`
}

type volumeResponse struct {
	ID            string  `json:"id"`
	TitleID       string  `json:"title_id"`
	CopyNumber    int     `json:"copy_number"`
	Barcode       string  `json:"barcode"`
	Condition     string  `json:"condition"`
	LocationID    *string `json:"location_id"`
	LoanStatus    string  `json:"loan_status"`
	ReferenceOnly bool    `json:"reference_only"`
	Notes         string  `json:"notes"`
	CreatedAt     int64   `json:"created_at"`
	UpdatedAt     int64   `json:"updated_at"`
}

func toVolume(v domain.Volume) volumeResponse {
	return volumeResponse{
		ID:            v.ID,
		TitleID:       v.TitleID,
		CopyNumber:    v.CopyNumber,
		Barcode:       v.Barcode,
		Condition:     string(v.Condition),
		LocationID:    v.LocationID,
		LoanStatus:    string(v.LoanStatus),
		ReferenceOnly: v.ReferenceOnly,
		Notes:         v.Notes,
		CreatedAt:     v.CreatedAt.Unix(),
		UpdatedAt:     v.UpdatedAt.Unix(),
	}
}
