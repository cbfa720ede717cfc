package domain

// DefaultLoanDurationDays applies to borrowers without a group.
const DefaultLoanDurationDays = 21

// Borrower is a library member.
type Borrower struct {
	ID      string
	Name    string
	Email   *string
	Phone   *string
	GroupID *string
}

// BorrowerGroup is a named loan policy.
type BorrowerGroup struct {
	ID               string
	Name             string
	LoanDurationDays int
	Description      string
}

// BorrowerPolicy is a borrower resolved together with the loan duration they
// are entitled to at the moment of resolution.
type BorrowerPolicy struct {
	BorrowerID       string
	Name             string
	Email            *string
	LoanDurationDays int
}
