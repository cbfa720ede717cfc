package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/cimillas/shelfkeeper/internal/testutil"
	"github.com/google/uuid"
)

func TestLoanRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewLoanRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	loanDate := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	newLoan := func(v domain.Volume, borrowerID string) domain.Loan {
		return domain.Loan{
			ID:         uuid.NewString(),
			TitleID:    v.TitleID,
			VolumeID:   v.ID,
			BorrowerID: borrowerID,
			LoanDate:   loanDate,
			DueDate:    domain.DueDateFor(loanDate, 21),
			Status:     domain.LoanStatusActive,
			CreatedAt:  loanDate,
			UpdatedAt:  loanDate,
		}
	}

	t.Run("CreateLoan persists and GetLoanForUpdate reads it back", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		v := testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "L-1"})
		borrower := testutil.InsertBorrower(t, ctx, pool, "Ada", 21)
		loan := newLoan(v, borrower)

		if err := repo.CreateLoan(ctx, loan); err != nil {
			t.Fatalf("create loan: %v", err)
		}

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			got, err := repo.GetLoanForUpdate(txCtx, loan.ID)
			if err != nil {
				return err
			}
			if got.VolumeID != v.ID || got.Status != domain.LoanStatusActive || got.ReturnDate != nil {
				t.Fatalf("unexpected loan: %+v", got)
			}
			if !got.DueDate.Equal(loan.DueDate) {
				t.Fatalf("expected due %v, got %v", loan.DueDate, got.DueDate)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		if _, err := repo.GetLoanForUpdate(ctx, uuid.NewString()); err != domain.ErrLoanNotFound {
			t.Fatalf("expected ErrLoanNotFound, got %v", err)
		}
		if _, err := repo.GetLoanForUpdate(ctx, "not-a-uuid"); err != domain.ErrLoanNotFound {
			t.Fatalf("expected ErrLoanNotFound for malformed id, got %v", err)
		}
	})

	t.Run("second open loan on a volume violates the partial index", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		v := testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "L-2"})
		borrower := testutil.InsertBorrower(t, ctx, pool, "Ada", 21)

		first := newLoan(v, borrower)
		if err := repo.CreateLoan(ctx, first); err != nil {
			t.Fatalf("create first loan: %v", err)
		}
		if err := repo.CreateLoan(ctx, newLoan(v, borrower)); err != domain.ErrAlreadyLoaned {
			t.Fatalf("expected ErrAlreadyLoaned, got %v", err)
		}

		if err := repo.MarkLoanReturned(ctx, first.ID, loanDate.Add(time.Hour)); err != nil {
			t.Fatalf("return first loan: %v", err)
		}
		if err := repo.CreateLoan(ctx, newLoan(v, borrower)); err != nil {
			t.Fatalf("expected a new loan after return, got %v", err)
		}
	})

	t.Run("MarkLoanReturned only closes open loans", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		v := testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "L-3"})
		borrower := testutil.InsertBorrower(t, ctx, pool, "Ada", 0)
		loan := newLoan(v, borrower)
		if err := repo.CreateLoan(ctx, loan); err != nil {
			t.Fatalf("create loan: %v", err)
		}

		returnedAt := loanDate.Add(48 * time.Hour)
		if err := repo.MarkLoanReturned(ctx, loan.ID, returnedAt); err != nil {
			t.Fatalf("mark returned: %v", err)
		}
		if err := repo.MarkLoanReturned(ctx, loan.ID, returnedAt.Add(time.Hour)); err != domain.ErrAlreadyReturned {
			t.Fatalf("expected ErrAlreadyReturned, got %v", err)
		}

		got, err := repo.GetLoanDetail(ctx, loan.ID)
		if err != nil {
			t.Fatalf("get detail: %v", err)
		}
		if got.Status != domain.LoanStatusReturned || got.ReturnDate == nil || !got.ReturnDate.Equal(returnedAt) {
			t.Fatalf("unexpected returned loan: %+v", got)
		}
	})

	t.Run("UpdateLoanExtension moves due date", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		v := testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "L-4"})
		borrower := testutil.InsertBorrower(t, ctx, pool, "Ada", 21)
		loan := newLoan(v, borrower)
		if err := repo.CreateLoan(ctx, loan); err != nil {
			t.Fatalf("create loan: %v", err)
		}

		ext, err := loan.Extend()
		if err != nil {
			t.Fatalf("extend: %v", err)
		}
		if err := repo.UpdateLoanExtension(ctx, loan.ID, ext, loanDate.Add(time.Hour)); err != nil {
			t.Fatalf("update extension: %v", err)
		}

		got, err := repo.GetLoanDetail(ctx, loan.ID)
		if err != nil {
			t.Fatalf("get detail: %v", err)
		}
		want := time.Date(2024, 2, 12, 10, 0, 0, 0, time.UTC)
		if !got.DueDate.Equal(want) || got.ExtensionCount != 1 {
			t.Fatalf("expected due %v count 1, got %v count %d", want, got.DueDate, got.ExtensionCount)
		}

		ext.ExtensionCount = 2
		if err := repo.UpdateLoanExtension(ctx, loan.ID, ext, loanDate); err == nil {
			t.Fatalf("expected check constraint to reject extension_count 2")
		}
	})

	t.Run("detail listings join title volume and borrower", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		borrower := testutil.InsertBorrower(t, ctx, pool, "Grace", 0)
		other := testutil.InsertBorrower(t, ctx, pool, "Linus", 0)
		now := loanDate.Add(10 * 24 * time.Hour)

		late := newLoan(testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "LATE"}), borrower)
		late.DueDate = loanDate.Add(3 * 24 * time.Hour)
		lateish := newLoan(testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "LATEISH"}), other)
		lateish.DueDate = loanDate.Add(7 * 24 * time.Hour)
		onTime := newLoan(testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "ONTIME"}), borrower)
		onTime.LoanDate = loanDate.Add(time.Hour)
		closed := newLoan(testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "CLOSED"}), borrower)
		closed.DueDate = loanDate.Add(24 * time.Hour)

		for _, l := range []domain.Loan{late, lateish, onTime, closed} {
			if err := repo.CreateLoan(ctx, l); err != nil {
				t.Fatalf("create loan: %v", err)
			}
		}
		if err := repo.MarkLoanReturned(ctx, closed.ID, loanDate.Add(12*time.Hour)); err != nil {
			t.Fatalf("return: %v", err)
		}

		open, err := repo.ListOpenLoans(ctx)
		if err != nil {
			t.Fatalf("list open: %v", err)
		}
		if len(open) != 3 || open[0].ID != late.ID || open[1].ID != lateish.ID || open[2].ID != onTime.ID {
			t.Fatalf("unexpected open loans: %+v", open)
		}
		if open[0].Barcode != "LATE" || open[0].Title != "Title of LATE" || open[0].BorrowerName != "Grace" {
			t.Fatalf("unexpected join columns: %+v", open[0])
		}
		if open[0].BorrowerEmail == nil || *open[0].BorrowerEmail != "grace@example.org" {
			t.Fatalf("unexpected borrower email: %v", open[0].BorrowerEmail)
		}

		overdue, err := repo.ListOverdueLoans(ctx, now)
		if err != nil {
			t.Fatalf("list overdue: %v", err)
		}
		if len(overdue) != 2 || overdue[0].ID != late.ID || overdue[1].ID != lateish.ID {
			t.Fatalf("unexpected overdue loans: %+v", overdue)
		}

		overdue, err = repo.ListOverdueLoans(ctx, lateish.DueDate)
		if err != nil {
			t.Fatalf("list overdue: %v", err)
		}
		if len(overdue) != 1 {
			t.Fatalf("a loan due exactly now is not overdue, got %d loans", len(overdue))
		}

		history, err := repo.ListLoansByBorrower(ctx, borrower)
		if err != nil {
			t.Fatalf("list by borrower: %v", err)
		}
		if len(history) != 3 || history[0].ID != onTime.ID {
			t.Fatalf("unexpected history: %+v", history)
		}

		none, err := repo.ListLoansByBorrower(ctx, uuid.NewString())
		if err != nil || len(none) != 0 {
			t.Fatalf("expected empty history, got %v %v", none, err)
		}
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		v := testutil.InsertVolume(t, ctx, pool, domain.Volume{Barcode: "L-5"})
		borrower := testutil.InsertBorrower(t, ctx, pool, "Ada", 21)
		loan := newLoan(v, borrower)
		boom := errors.New("boom")

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.CreateLoan(txCtx, loan); err != nil {
				return err
			}
			return boom
		})
		if err != boom {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := repo.GetLoanDetail(ctx, loan.ID); err != domain.ErrLoanNotFound {
			t.Fatalf("expected rolled back loan, got %v", err)
		}
	})
}
