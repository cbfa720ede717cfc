package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LoanRepository struct {
	db
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{db{pool: pool}}
}

func (r *LoanRepository) GetLoanForUpdate(ctx context.Context, loanID string) (domain.Loan, error) {
	const query = `
SELECT id, title_id, volume_id, borrower_id, loan_date, due_date, extension_count,
	return_date, status, created_at, updated_at
FROM loans
WHERE id = $1
FOR UPDATE`

	var l domain.Loan
	err := r.queryRow(ctx, query, loanID).Scan(
		&l.ID, &l.TitleID, &l.VolumeID, &l.BorrowerID, &l.LoanDate, &l.DueDate,
		&l.ExtensionCount, &l.ReturnDate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Loan{}, domain.ErrLoanNotFound
		}
		return domain.Loan{}, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, loan domain.Loan) error {
	const stmt = `
INSERT INTO loans (id, title_id, volume_id, borrower_id, loan_date, due_date,
	extension_count, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		loan.ID,
		loan.TitleID,
		loan.VolumeID,
		loan.BorrowerID,
		loan.LoanDate,
		loan.DueDate,
		loan.ExtensionCount,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == "loans_one_open_per_volume" {
			return domain.ErrAlreadyLoaned
		}
		if isForeignKeyViolation(err) {
			return domain.ErrBorrowerNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

func (r *LoanRepository) MarkLoanReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	const stmt = `
UPDATE loans
SET status = 'returned', return_date = $2, updated_at = $2
WHERE id = $1 AND status <> 'returned'`

	tag, err := r.exec(ctx, stmt, loanID, returnedAt)
	if err != nil {
		return fmt.Errorf("mark loan returned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyReturned
	}
	return nil
}

func (r *LoanRepository) UpdateLoanExtension(ctx context.Context, loanID string, ext domain.Extension, now time.Time) error {
	const stmt = `
UPDATE loans
SET due_date = $2, extension_count = $3, updated_at = $4
WHERE id = $1 AND status <> 'returned'`

	tag, err := r.exec(ctx, stmt, loanID, ext.NewDueDate, ext.ExtensionCount, now)
	if err != nil {
		return fmt.Errorf("extend loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCannotExtendReturned
	}
	return nil
}

func (r *LoanRepository) GetLoanDetail(ctx context.Context, loanID string) (domain.LoanDetail, error) {
	query, args, err := loanDetails().Where(goqu.I("l.id").Eq(loanID)).Prepared(true).ToSQL()
	if err != nil {
		return domain.LoanDetail{}, fmt.Errorf("build loan query: %w", err)
	}
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return domain.LoanDetail{}, fmt.Errorf("get loan detail: %w", err)
	}
	details, err := collectLoanDetails(rows)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.LoanDetail{}, domain.ErrLoanNotFound
		}
		return domain.LoanDetail{}, err
	}
	if len(details) == 0 {
		return domain.LoanDetail{}, domain.ErrLoanNotFound
	}
	return details[0], nil
}

// ListOpenLoans returns every loan not yet returned, soonest due first.
func (r *LoanRepository) ListOpenLoans(ctx context.Context) ([]domain.LoanDetail, error) {
	ds := loanDetails().
		Where(goqu.I("l.status").Neq(string(domain.LoanStatusReturned))).
		Order(goqu.I("l.due_date").Asc(), goqu.I("l.id").Asc())
	return r.listLoanDetails(ctx, ds)
}

// ListOverdueLoans filters on the same rule as domain.IsOverdue.
func (r *LoanRepository) ListOverdueLoans(ctx context.Context, now time.Time) ([]domain.LoanDetail, error) {
	ds := loanDetails().
		Where(
			goqu.I("l.status").Neq(string(domain.LoanStatusReturned)),
			goqu.I("l.due_date").Lt(now),
		).
		Order(goqu.I("l.due_date").Asc(), goqu.I("l.id").Asc())
	return r.listLoanDetails(ctx, ds)
}

func (r *LoanRepository) ListLoansByBorrower(ctx context.Context, borrowerID string) ([]domain.LoanDetail, error) {
	ds := loanDetails().
		Where(goqu.I("l.borrower_id").Eq(borrowerID)).
		Order(goqu.I("l.loan_date").Desc(), goqu.I("l.id").Asc())
	return r.listLoanDetails(ctx, ds)
}

func (r *LoanRepository) listLoanDetails(ctx context.Context, ds *goqu.SelectDataset) ([]domain.LoanDetail, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan query: %w", err)
	}
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return collectLoanDetails(rows)
}

func loanDetails() *goqu.SelectDataset {
	return dialect.From(goqu.T("loans").As("l")).
		Join(goqu.T("volumes").As("v"), goqu.On(goqu.I("v.id").Eq(goqu.I("l.volume_id")))).
		Join(goqu.T("titles").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("l.title_id")))).
		Join(goqu.T("borrowers").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.borrower_id")))).
		Select(
			goqu.I("l.id"),
			goqu.I("l.title_id"),
			goqu.I("l.volume_id"),
			goqu.I("l.borrower_id"),
			goqu.I("l.loan_date"),
			goqu.I("l.due_date"),
			goqu.I("l.extension_count"),
			goqu.I("l.return_date"),
			goqu.I("l.status"),
			goqu.I("l.created_at"),
			goqu.I("l.updated_at"),
			goqu.I("t.title"),
			goqu.I("v.barcode"),
			goqu.I("b.name"),
			goqu.I("b.email"),
		)
}

func collectLoanDetails(rows pgx.Rows) ([]domain.LoanDetail, error) {
	defer rows.Close()

	details := make([]domain.LoanDetail, 0)
	for rows.Next() {
		var d domain.LoanDetail
		if err := rows.Scan(
			&d.ID, &d.TitleID, &d.VolumeID, &d.BorrowerID, &d.LoanDate, &d.DueDate,
			&d.ExtensionCount, &d.ReturnDate, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.Title, &d.Barcode, &d.BorrowerName, &d.BorrowerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return details, nil
}
