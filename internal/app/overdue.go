package app

import (
	"time"

	"github.com/cimillas/shelfkeeper/internal/domain"
)

// OverdueProjector derives the overdue view of loans at read time. Nothing it
// computes is persisted.
type OverdueProjector struct{}

// Project annotates each loan in place and returns the slice.
func (OverdueProjector) Project(loans []domain.LoanDetail, now time.Time) []domain.LoanDetail {
	for i := range loans {
		loans[i] = projectOne(loans[i], now)
	}
	return loans
}

func projectOne(l domain.LoanDetail, now time.Time) domain.LoanDetail {
	l.IsOverdue = domain.IsOverdue(l.Status, l.DueDate, now)
	switch {
	case l.IsOverdue:
		l.Status = domain.LoanStatusOverdue
	case l.Status == domain.LoanStatusOverdue:
		// A legacy stored "overdue" that is no longer past due reads as active.
		l.Status = domain.LoanStatusActive
	}
	return l
}

// OverdueOnly keeps the overdue loans of an already projected slice.
func (OverdueProjector) OverdueOnly(loans []domain.LoanDetail) []domain.LoanDetail {
	out := loans[:0]
	for _, l := range loans {
		if l.IsOverdue {
			out = append(out, l)
		}
	}
	return out
}
