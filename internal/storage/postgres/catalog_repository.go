package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository writes the records loans refer to: titles, volumes,
// borrower groups and borrowers.
type CatalogRepository struct {
	db
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db{pool: pool}}
}

func (r *CatalogRepository) CreateTitle(ctx context.Context, title domain.Title) error {
	const stmt = `
INSERT INTO titles (id, title, author, isbn, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.exec(ctx, stmt, title.ID, title.Title, title.Author, title.ISBN, title.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

// CreateVolume inserts v, numbering it after the title's existing copies when
// CopyNumber is zero. The stored copy number is written back into v.
func (r *CatalogRepository) CreateVolume(ctx context.Context, v *domain.Volume) error {
	const stmt = `
INSERT INTO volumes (id, title_id, copy_number, barcode, condition, location_id,
	loan_status, reference_only, notes, created_at, updated_at)
SELECT $1, $2,
	CASE WHEN $3::int > 0 THEN $3::int
		ELSE COALESCE((SELECT MAX(copy_number) FROM volumes WHERE title_id = $2), 0) + 1 END,
	$4, $5, $6, $7, $8, $9, $10, $10
RETURNING copy_number`
	err := r.queryRow(ctx, stmt,
		v.ID,
		v.TitleID,
		v.CopyNumber,
		v.Barcode,
		v.Condition,
		v.LocationID,
		v.LoanStatus,
		v.ReferenceOnly,
		v.Notes,
		v.CreatedAt,
	).Scan(&v.CopyNumber)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrTitleNotFound
		}
		if isUniqueViolation(err) {
			if violatedConstraint(err) == "volumes_copy_unique" {
				return domain.ErrCopyNumberTaken
			}
			return domain.ErrBarcodeTaken
		}
		return fmt.Errorf("create volume: %w", err)
	}
	return nil
}

func (r *CatalogRepository) CreateBorrowerGroup(ctx context.Context, group domain.BorrowerGroup) error {
	const stmt = `
INSERT INTO borrower_groups (id, name, loan_duration_days, description)
VALUES ($1, $2, $3, $4)`
	_, err := r.exec(ctx, stmt, group.ID, group.Name, group.LoanDurationDays, group.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrGroupAlreadyExists
		}
		return fmt.Errorf("create borrower group: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListBorrowerGroups(ctx context.Context) ([]domain.BorrowerGroup, error) {
	const query = `
SELECT id, name, loan_duration_days, description
FROM borrower_groups
ORDER BY name ASC`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list borrower groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.BorrowerGroup
	for rows.Next() {
		var g domain.BorrowerGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.LoanDurationDays, &g.Description); err != nil {
			return nil, fmt.Errorf("scan borrower group: %w", err)
		}
		groups = append(groups, g)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate borrower groups: %w", rows.Err())
	}
	return groups, nil
}

func (r *CatalogRepository) CreateBorrower(ctx context.Context, b domain.Borrower) error {
	const stmt = `
INSERT INTO borrowers (id, name, email, phone, group_id)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.exec(ctx, stmt, b.ID, b.Name, b.Email, b.Phone, b.GroupID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrGroupNotFound
		}
		return fmt.Errorf("create borrower: %w", err)
	}
	return nil
}
