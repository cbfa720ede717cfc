package domain

import "time"

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
	// LoanStatusOverdue is never stored by the ledger; it is derived on read.
	LoanStatusOverdue LoanStatus = "overdue"
)

// MaxExtensions caps how many times a single loan may be extended.
const MaxExtensions = 1

const day = 24 * time.Hour

// Loan assigns one volume to one borrower for a bounded time.
type Loan struct {
	ID             string
	TitleID        string
	VolumeID       string
	BorrowerID     string
	LoanDate       time.Time
	DueDate        time.Time
	ExtensionCount int
	ReturnDate     *time.Time
	Status         LoanStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DueDateFor returns the due date of a loan started at loanDate.
func DueDateFor(loanDate time.Time, durationDays int) time.Time {
	return loanDate.Add(time.Duration(durationDays) * day)
}

// Returned reports whether the loan reached its terminal state.
func (l Loan) Returned() bool {
	return l.Status == LoanStatusReturned
}

// IsOverdue reports whether the loan is open and past its due date at now.
func (l Loan) IsOverdue(now time.Time) bool {
	return IsOverdue(l.Status, l.DueDate, now)
}

// IsOverdue is the single overdue rule shared by every read path.
func IsOverdue(status LoanStatus, due, now time.Time) bool {
	return status != LoanStatusReturned && due.Before(now)
}

// Extension describes the outcome of extending a loan once.
type Extension struct {
	NewDueDate       time.Time
	ExtensionCount   int
	OriginalDuration time.Duration
}

// OriginalDurationDays is the pre-extension window in whole days.
func (e Extension) OriginalDurationDays() int {
	return int(e.OriginalDuration / day)
}

// Extend computes the extension of l. The window added is the current
// due_date minus loan_date.
func (l Loan) Extend() (Extension, error) {
	if l.Returned() {
		return Extension{}, ErrCannotExtendReturned
	}
	if l.ExtensionCount >= MaxExtensions {
		return Extension{}, ErrExtensionLimitReached
	}
	original := l.DueDate.Sub(l.LoanDate)
	return Extension{
		NewDueDate:       l.DueDate.Add(original),
		ExtensionCount:   l.ExtensionCount + 1,
		OriginalDuration: original,
	}, nil
}

// LoanDetail is the read projection of a loan with display fields joined in.
type LoanDetail struct {
	Loan
	Title         string
	Barcode       string
	BorrowerName  string
	BorrowerEmail *string
	IsOverdue     bool
}
