package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var volumeColumns = []any{
	"id", "title_id", "copy_number", "barcode", "condition", "location_id",
	"loan_status", "reference_only", "notes", "created_at", "updated_at",
}

type VolumeRepository struct {
	db
}

func NewVolumeRepository(pool *pgxpool.Pool) *VolumeRepository {
	return &VolumeRepository{db{pool: pool}}
}

func (r *VolumeRepository) GetVolumeByID(ctx context.Context, id string) (domain.Volume, error) {
	return r.getVolume(ctx, goqu.Ex{"id": id}, false)
}

func (r *VolumeRepository) GetVolumeForUpdate(ctx context.Context, id string) (domain.Volume, error) {
	return r.getVolume(ctx, goqu.Ex{"id": id}, true)
}

func (r *VolumeRepository) GetVolumeByBarcode(ctx context.Context, barcode string) (domain.Volume, error) {
	return r.getVolume(ctx, goqu.Ex{"barcode": barcode}, false)
}

func (r *VolumeRepository) GetVolumeByBarcodeForUpdate(ctx context.Context, barcode string) (domain.Volume, error) {
	return r.getVolume(ctx, goqu.Ex{"barcode": barcode}, true)
}

func (r *VolumeRepository) getVolume(ctx context.Context, where goqu.Ex, lock bool) (domain.Volume, error) {
	ds := dialect.From("volumes").Select(volumeColumns...).Where(where)
	if lock {
		ds = ds.ForUpdate(exp.Wait)
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return domain.Volume{}, fmt.Errorf("build volume query: %w", err)
	}

	v, err := scanVolume(r.queryRow(ctx, query, args...))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Volume{}, domain.ErrVolumeNotFound
		}
		return domain.Volume{}, fmt.Errorf("get volume: %w", err)
	}
	return v, nil
}

func (r *VolumeRepository) UpdateVolumeLoanStatus(ctx context.Context, id string, status domain.VolumeLoanStatus, now time.Time) error {
	const stmt = `UPDATE volumes SET loan_status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.exec(ctx, stmt, id, status, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrVolumeNotFound
		}
		return fmt.Errorf("update volume loan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVolumeNotFound
	}
	return nil
}

// UpdateVolume writes only the fields present in upd.
func (r *VolumeRepository) UpdateVolume(ctx context.Context, id string, upd domain.VolumeUpdate, now time.Time) (domain.Volume, error) {
	record := goqu.Record{"updated_at": now}
	if upd.Condition != nil {
		record["condition"] = string(*upd.Condition)
	}
	switch {
	case upd.LocationID != nil:
		record["location_id"] = *upd.LocationID
	case upd.ClearLocation:
		record["location_id"] = nil
	}
	if upd.Notes != nil {
		record["notes"] = *upd.Notes
	}
	if upd.ReferenceOnly != nil {
		record["reference_only"] = *upd.ReferenceOnly
	}

	query, args, err := dialect.Update("volumes").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Returning(volumeColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return domain.Volume{}, fmt.Errorf("build volume update: %w", err)
	}

	v, err := scanVolume(r.queryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Volume{}, domain.ErrVolumeNotFound
		}
		if isInvalidUUID(err) {
			return domain.Volume{}, domain.ErrInvalidID
		}
		return domain.Volume{}, fmt.Errorf("update volume: %w", err)
	}
	return v, nil
}

func (r *VolumeRepository) DeleteVolume(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM volumes WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrVolumeNotFound
		}
		return fmt.Errorf("delete volume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVolumeNotFound
	}
	return nil
}

func scanVolume(row pgx.Row) (domain.Volume, error) {
	var v domain.Volume
	err := row.Scan(
		&v.ID,
		&v.TitleID,
		&v.CopyNumber,
		&v.Barcode,
		&v.Condition,
		&v.LocationID,
		&v.LoanStatus,
		&v.ReferenceOnly,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	return v, err
}
