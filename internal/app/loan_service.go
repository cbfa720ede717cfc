package app

import (
	"context"
	"errors"
	"time"

	"github.com/cimillas/shelfkeeper/internal/clock"
	"github.com/cimillas/shelfkeeper/internal/domain"
	"go.uber.org/zap"
)

type LoanRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetLoanForUpdate(ctx context.Context, loanID string) (domain.Loan, error)
	CreateLoan(ctx context.Context, loan domain.Loan) error
	MarkLoanReturned(ctx context.Context, loanID string, returnedAt time.Time) error
	UpdateLoanExtension(ctx context.Context, loanID string, ext domain.Extension, now time.Time) error
	GetLoanDetail(ctx context.Context, loanID string) (domain.LoanDetail, error)
	ListOpenLoans(ctx context.Context) ([]domain.LoanDetail, error)
	ListOverdueLoans(ctx context.Context, now time.Time) ([]domain.LoanDetail, error)
	ListLoansByBorrower(ctx context.Context, borrowerID string) ([]domain.LoanDetail, error)
}

// VolumeStore is the part of the volume registry the ledger drives.
type VolumeStore interface {
	LockByBarcode(ctx context.Context, barcode string) (domain.Volume, error)
	SetLoanStatus(ctx context.Context, id string, status domain.VolumeLoanStatus) error
}

type PolicyResolver interface {
	Resolve(ctx context.Context, borrowerID string) (domain.BorrowerPolicy, error)
}

// LoanService is the loan ledger. CreateLoan and ReturnLoan write the loan row
// and the volume's loan status in a single transaction.
type LoanService struct {
	loans     LoanRepository
	volumes   VolumeStore
	borrowers PolicyResolver
	clock     clock.Clock
	projector OverdueProjector
	log       *zap.Logger
	metrics   MetricsCollector
}

type LoanServiceOption func(*LoanService)

func WithLogger(logger *zap.Logger) LoanServiceOption {
	return func(s *LoanService) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithMetrics(collector MetricsCollector) LoanServiceOption {
	return func(s *LoanService) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

func NewLoanService(loans LoanRepository, volumes VolumeStore, borrowers PolicyResolver, clk clock.Clock, opts ...LoanServiceOption) *LoanService {
	svc := &LoanService{
		loans:     loans,
		volumes:   volumes,
		borrowers: borrowers,
		clock:     clk,
		log:       zap.NewNop(),
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateLoanInput struct {
	BorrowerID string
	Barcode    string
}

type CreateLoanResult struct {
	LoanID           string
	DueDate          time.Time
	LoanDurationDays int
}

func (s *LoanService) CreateLoan(ctx context.Context, in CreateLoanInput) (CreateLoanResult, error) {
	start := time.Now()
	now := s.clock.Now()
	var result CreateLoanResult

	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		volume, err := s.volumes.LockByBarcode(txCtx, in.Barcode)
		if err != nil {
			return err
		}
		if !volume.Circulates() {
			return domain.ErrNotLoanable
		}
		if volume.LoanStatus != domain.VolumeAvailable {
			return domain.ErrAlreadyLoaned
		}

		policy, err := s.borrowers.Resolve(txCtx, in.BorrowerID)
		if err != nil {
			return err
		}

		loan := domain.Loan{
			ID:         newID(),
			TitleID:    volume.TitleID,
			VolumeID:   volume.ID,
			BorrowerID: policy.BorrowerID,
			LoanDate:   now,
			DueDate:    domain.DueDateFor(now, policy.LoanDurationDays),
			Status:     domain.LoanStatusActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		// The partial unique index on open loans turns a lost race into
		// ErrAlreadyLoaned here even if the row lock was bypassed.
		if err := s.loans.CreateLoan(txCtx, loan); err != nil {
			return err
		}
		if err := s.volumes.SetLoanStatus(txCtx, volume.ID, domain.VolumeLoaned); err != nil {
			return err
		}

		result = CreateLoanResult{
			LoanID:           loan.ID,
			DueDate:          loan.DueDate,
			LoanDurationDays: policy.LoanDurationDays,
		}
		return nil
	})
	s.observe(ctx, "create", start, err)
	if err != nil {
		return CreateLoanResult{}, err
	}

	s.log.Info("loan created",
		zap.String("loan_id", result.LoanID),
		zap.String("barcode", in.Barcode),
		zap.String("borrower_id", in.BorrowerID),
		zap.Time("due_date", result.DueDate),
	)
	return result, nil
}

type ReturnLoanResult struct {
	ReturnDate time.Time
}

func (s *LoanService) ReturnLoan(ctx context.Context, loanID string) (ReturnLoanResult, error) {
	if !validID(loanID) {
		return ReturnLoanResult{}, domain.ErrLoanNotFound
	}

	start := time.Now()
	now := s.clock.Now()

	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if loan.Returned() {
			return domain.ErrAlreadyReturned
		}
		if err := s.loans.MarkLoanReturned(txCtx, loanID, now); err != nil {
			return err
		}
		return s.volumes.SetLoanStatus(txCtx, loan.VolumeID, domain.VolumeAvailable)
	})
	s.observe(ctx, "return", start, err)
	if err != nil {
		return ReturnLoanResult{}, err
	}

	s.log.Info("loan returned", zap.String("loan_id", loanID), zap.Time("return_date", now))
	return ReturnLoanResult{ReturnDate: now}, nil
}

type ExtendLoanResult struct {
	NewDueDate           time.Time
	ExtensionCount       int
	OriginalDurationDays int
}

// ExtendLoan pushes the due date out by the loan's current window. Only the
// loan row changes.
func (s *LoanService) ExtendLoan(ctx context.Context, loanID string) (ExtendLoanResult, error) {
	if !validID(loanID) {
		return ExtendLoanResult{}, domain.ErrLoanNotFound
	}

	start := time.Now()
	now := s.clock.Now()
	var ext domain.Extension

	err := s.loans.WithTx(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.GetLoanForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		ext, err = loan.Extend()
		if err != nil {
			return err
		}
		return s.loans.UpdateLoanExtension(txCtx, loanID, ext, now)
	})
	s.observe(ctx, "extend", start, err)
	if err != nil {
		return ExtendLoanResult{}, err
	}

	s.log.Info("loan extended",
		zap.String("loan_id", loanID),
		zap.Time("new_due_date", ext.NewDueDate),
		zap.Int("extension_count", ext.ExtensionCount),
	)
	return ExtendLoanResult{
		NewDueDate:           ext.NewDueDate,
		ExtensionCount:       ext.ExtensionCount,
		OriginalDurationDays: ext.OriginalDurationDays(),
	}, nil
}

func (s *LoanService) GetLoan(ctx context.Context, loanID string) (domain.LoanDetail, error) {
	if !validID(loanID) {
		return domain.LoanDetail{}, domain.ErrLoanNotFound
	}
	detail, err := s.loans.GetLoanDetail(ctx, loanID)
	if err != nil {
		return domain.LoanDetail{}, err
	}
	return projectOne(detail, s.clock.Now()), nil
}

// ListActiveLoans returns every loan that has not been returned.
func (s *LoanService) ListActiveLoans(ctx context.Context) ([]domain.LoanDetail, error) {
	loans, err := s.loans.ListOpenLoans(ctx)
	if err != nil {
		return nil, err
	}
	return s.projector.Project(loans, s.clock.Now()), nil
}

// ListOverdueLoans returns open loans past due, most overdue first.
func (s *LoanService) ListOverdueLoans(ctx context.Context) ([]domain.LoanDetail, error) {
	now := s.clock.Now()
	loans, err := s.loans.ListOverdueLoans(ctx, now)
	if err != nil {
		return nil, err
	}
	return s.projector.OverdueOnly(s.projector.Project(loans, now)), nil
}

// ListBorrowerLoans returns a borrower's loan history, newest first.
func (s *LoanService) ListBorrowerLoans(ctx context.Context, borrowerID string) ([]domain.LoanDetail, error) {
	if _, err := s.borrowers.Resolve(ctx, borrowerID); err != nil {
		return nil, err
	}
	loans, err := s.loans.ListLoansByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return s.projector.Project(loans, s.clock.Now()), nil
}

func (s *LoanService) observe(ctx context.Context, op string, start time.Time, err error) {
	outcome := outcomeSuccess
	switch {
	case err == nil:
	case domain.KindOf(err) != domain.KindInternal:
		outcome = outcomeRejected
	default:
		outcome = outcomeError
		if !errors.Is(err, context.Canceled) {
			s.log.Error("loan operation failed", zap.String("operation", op), zap.Error(err))
		}
	}
	labels := map[string]string{labelOperation: op, labelOutcome: outcome}
	s.metrics.IncrementCounter(ctx, metricLoanOperations, labels)
	s.metrics.RecordDuration(ctx, metricLoanOperationDuration, time.Since(start), labels)
}
