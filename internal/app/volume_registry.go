package app

import (
	"context"
	"strings"
	"time"

	"github.com/cimillas/shelfkeeper/internal/clock"
	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

type VolumeRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetVolumeByID(ctx context.Context, id string) (domain.Volume, error)
	GetVolumeByBarcode(ctx context.Context, barcode string) (domain.Volume, error)
	GetVolumeForUpdate(ctx context.Context, id string) (domain.Volume, error)
	GetVolumeByBarcodeForUpdate(ctx context.Context, barcode string) (domain.Volume, error)
	UpdateVolumeLoanStatus(ctx context.Context, id string, status domain.VolumeLoanStatus, now time.Time) error
	UpdateVolume(ctx context.Context, id string, upd domain.VolumeUpdate, now time.Time) (domain.Volume, error)
	DeleteVolume(ctx context.Context, id string) error
}

// VolumeRegistry exposes volume lookups and the loan-status field the ledger
// maintains. It performs no loan validation of its own.
type VolumeRegistry struct {
	repo   VolumeRepository
	clock  clock.Clock
	policy *bluemonday.Policy
}

func NewVolumeRegistry(repo VolumeRepository, clk clock.Clock) *VolumeRegistry {
	return &VolumeRegistry{
		repo:   repo,
		clock:  clk,
		policy: bluemonday.StrictPolicy(),
	}
}

func (r *VolumeRegistry) FindByBarcode(ctx context.Context, barcode string) (domain.Volume, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Volume{}, domain.ErrVolumeNotFound
	}
	return r.repo.GetVolumeByBarcode(ctx, barcode)
}

func (r *VolumeRegistry) FindByID(ctx context.Context, id string) (domain.Volume, error) {
	if !validID(id) {
		return domain.Volume{}, domain.ErrVolumeNotFound
	}
	return r.repo.GetVolumeByID(ctx, id)
}

// LockByBarcode loads the volume and holds its row lock until the enclosing
// transaction ends. Outside a transaction it behaves like FindByBarcode.
func (r *VolumeRegistry) LockByBarcode(ctx context.Context, barcode string) (domain.Volume, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Volume{}, domain.ErrVolumeNotFound
	}
	return r.repo.GetVolumeByBarcodeForUpdate(ctx, barcode)
}

func (r *VolumeRegistry) SetLoanStatus(ctx context.Context, id string, status domain.VolumeLoanStatus) error {
	return r.repo.UpdateVolumeLoanStatus(ctx, id, status, r.clock.Now())
}

func (r *VolumeRegistry) CanDelete(ctx context.Context, id string) (bool, error) {
	v, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return !v.LoanStatus.OnLoan(), nil
}

// Update applies a catalog correction. Loan status is deliberately not part of
// VolumeUpdate: only the ledger writes it.
func (r *VolumeRegistry) Update(ctx context.Context, id string, upd domain.VolumeUpdate) (domain.Volume, error) {
	if !validID(id) {
		return domain.Volume{}, domain.ErrVolumeNotFound
	}
	if upd.Empty() {
		return domain.Volume{}, domain.ErrEmptyUpdate
	}
	if upd.Condition != nil && !upd.Condition.Valid() {
		return domain.Volume{}, domain.ErrInvalidCondition
	}
	if upd.LocationID != nil && !validID(*upd.LocationID) {
		return domain.Volume{}, domain.ErrInvalidID
	}
	if upd.Notes != nil {
		notes := strings.TrimSpace(r.policy.Sanitize(*upd.Notes))
		upd.Notes = &notes
	}
	return r.repo.UpdateVolume(ctx, id, upd, r.clock.Now())
}

func (r *VolumeRegistry) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrVolumeNotFound
	}
	return r.repo.WithTx(ctx, func(txCtx context.Context) error {
		v, err := r.repo.GetVolumeForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if v.LoanStatus.OnLoan() {
			return domain.ErrVolumeOnLoan
		}
		return r.repo.DeleteVolume(txCtx, id)
	})
}
