package app

import (
	"context"
	"strings"

	"github.com/cimillas/shelfkeeper/internal/clock"
	"github.com/cimillas/shelfkeeper/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

type CatalogRepository interface {
	CreateTitle(ctx context.Context, title domain.Title) error
	CreateVolume(ctx context.Context, v *domain.Volume) error
	CreateBorrowerGroup(ctx context.Context, group domain.BorrowerGroup) error
	ListBorrowerGroups(ctx context.Context) ([]domain.BorrowerGroup, error)
	CreateBorrower(ctx context.Context, b domain.Borrower) error
}

// CatalogService registers titles, copies and borrowers. New volumes always
// start available; only the loan ledger moves them out of that state.
type CatalogService struct {
	repo   CatalogRepository
	clock  clock.Clock
	policy *bluemonday.Policy
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:   repo,
		clock:  clk,
		policy: bluemonday.StrictPolicy(),
	}
}

type CreateTitleInput struct {
	Title  string
	Author string
	ISBN   string
}

func (s *CatalogService) CreateTitle(ctx context.Context, in CreateTitleInput) (domain.Title, error) {
	name := s.clean(in.Title)
	if name == "" {
		return domain.Title{}, domain.ErrTitleRequired
	}
	title := domain.Title{
		ID:        newID(),
		Title:     name,
		Author:    s.clean(in.Author),
		CreatedAt: s.clock.Now(),
	}
	if isbn := strings.TrimSpace(in.ISBN); isbn != "" {
		title.ISBN = &isbn
	}
	if err := s.repo.CreateTitle(ctx, title); err != nil {
		return domain.Title{}, err
	}
	return title, nil
}

type CreateVolumeInput struct {
	TitleID       string
	Barcode       string
	CopyNumber    int
	Condition     domain.Condition
	LocationID    *string
	ReferenceOnly bool
	Notes         string
}

func (s *CatalogService) CreateVolume(ctx context.Context, in CreateVolumeInput) (domain.Volume, error) {
	if !validID(in.TitleID) {
		return domain.Volume{}, domain.ErrTitleNotFound
	}
	barcode := strings.TrimSpace(in.Barcode)
	if barcode == "" {
		return domain.Volume{}, domain.ErrBarcodeRequired
	}
	condition := in.Condition
	if condition == "" {
		condition = domain.ConditionGood
	}
	if !condition.Valid() {
		return domain.Volume{}, domain.ErrInvalidCondition
	}
	if in.LocationID != nil && !validID(*in.LocationID) {
		return domain.Volume{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	v := domain.Volume{
		ID:            newID(),
		TitleID:       in.TitleID,
		CopyNumber:    in.CopyNumber,
		Barcode:       barcode,
		Condition:     condition,
		LocationID:    in.LocationID,
		LoanStatus:    domain.VolumeAvailable,
		ReferenceOnly: in.ReferenceOnly,
		Notes:         s.clean(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateVolume(ctx, &v); err != nil {
		return domain.Volume{}, err
	}
	return v, nil
}

type CreateGroupInput struct {
	Name             string
	LoanDurationDays int
	Description      string
}

func (s *CatalogService) CreateBorrowerGroup(ctx context.Context, in CreateGroupInput) (domain.BorrowerGroup, error) {
	name := s.clean(in.Name)
	if name == "" {
		return domain.BorrowerGroup{}, domain.ErrNameRequired
	}
	if in.LoanDurationDays <= 0 {
		return domain.BorrowerGroup{}, domain.ErrInvalidDuration
	}
	group := domain.BorrowerGroup{
		ID:               newID(),
		Name:             name,
		LoanDurationDays: in.LoanDurationDays,
		Description:      s.clean(in.Description),
	}
	if err := s.repo.CreateBorrowerGroup(ctx, group); err != nil {
		return domain.BorrowerGroup{}, err
	}
	return group, nil
}

func (s *CatalogService) ListBorrowerGroups(ctx context.Context) ([]domain.BorrowerGroup, error) {
	return s.repo.ListBorrowerGroups(ctx)
}

type CreateBorrowerInput struct {
	Name    string
	Email   string
	Phone   string
	GroupID *string
}

func (s *CatalogService) CreateBorrower(ctx context.Context, in CreateBorrowerInput) (domain.Borrower, error) {
	name := s.clean(in.Name)
	if name == "" {
		return domain.Borrower{}, domain.ErrNameRequired
	}
	if in.GroupID != nil && !validID(*in.GroupID) {
		return domain.Borrower{}, domain.ErrGroupNotFound
	}
	b := domain.Borrower{
		ID:      newID(),
		Name:    name,
		Email:   optional(in.Email),
		Phone:   optional(in.Phone),
		GroupID: in.GroupID,
	}
	if err := s.repo.CreateBorrower(ctx, b); err != nil {
		return domain.Borrower{}, err
	}
	return b, nil
}

// clean strips markup from free text entered by staff.
func (s *CatalogService) clean(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
