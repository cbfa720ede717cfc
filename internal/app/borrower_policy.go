package app

import (
	"context"

	"github.com/cimillas/shelfkeeper/internal/domain"
)

type BorrowerRepository interface {
	// GetBorrowerPolicy returns the borrower with its group's loan duration in
	// one read. LoanDurationDays is zero when no group is assigned.
	GetBorrowerPolicy(ctx context.Context, borrowerID string) (domain.BorrowerPolicy, error)
}

type BorrowerPolicyResolver struct {
	repo            BorrowerRepository
	defaultDuration int
}

type BorrowerPolicyOption func(*BorrowerPolicyResolver)

// WithDefaultLoanDuration overrides the duration used for borrowers without a group.
func WithDefaultLoanDuration(days int) BorrowerPolicyOption {
	return func(r *BorrowerPolicyResolver) {
		if days > 0 {
			r.defaultDuration = days
		}
	}
}

func NewBorrowerPolicyResolver(repo BorrowerRepository, opts ...BorrowerPolicyOption) *BorrowerPolicyResolver {
	r := &BorrowerPolicyResolver{
		repo:            repo,
		defaultDuration: domain.DefaultLoanDurationDays,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *BorrowerPolicyResolver) Resolve(ctx context.Context, borrowerID string) (domain.BorrowerPolicy, error) {
	if !validID(borrowerID) {
		return domain.BorrowerPolicy{}, domain.ErrBorrowerNotFound
	}
	policy, err := r.repo.GetBorrowerPolicy(ctx, borrowerID)
	if err != nil {
		return domain.BorrowerPolicy{}, err
	}
	if policy.LoanDurationDays <= 0 {
		policy.LoanDurationDays = r.defaultDuration
	}
	return policy, nil
}
