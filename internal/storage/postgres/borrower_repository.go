package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BorrowerRepository struct {
	db
}

func NewBorrowerRepository(pool *pgxpool.Pool) *BorrowerRepository {
	return &BorrowerRepository{db{pool: pool}}
}

// GetBorrowerPolicy reads the borrower and its group's duration in one
// statement. A borrower without a group comes back with zero days.
func (r *BorrowerRepository) GetBorrowerPolicy(ctx context.Context, borrowerID string) (domain.BorrowerPolicy, error) {
	const query = `
SELECT b.id, b.name, b.email, COALESCE(g.loan_duration_days, 0)
FROM borrowers b
LEFT JOIN borrower_groups g ON g.id = b.group_id
WHERE b.id = $1`

	var p domain.BorrowerPolicy
	err := r.queryRow(ctx, query, borrowerID).Scan(&p.BorrowerID, &p.Name, &p.Email, &p.LoanDurationDays)
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.BorrowerPolicy{}, domain.ErrBorrowerNotFound
		}
		return domain.BorrowerPolicy{}, fmt.Errorf("get borrower policy: %w", err)
	}
	return p, nil
}
