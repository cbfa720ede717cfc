package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cimillas/shelfkeeper/internal/domain"
)

type txMarker struct{}

// memStore is an in-memory stand-in for the Postgres repositories. WithTx
// serializes units of work and restores a snapshot when fn fails, which is the
// behaviour the ledger relies on from the real store.
type memStore struct {
	mu        sync.Mutex
	volumes   map[string]domain.Volume
	loans     map[string]domain.Loan
	borrowers map[string]domain.BorrowerPolicy
	titles    map[string]string

	failOn  map[string]error
	txCount int
}

func newMemStore() *memStore {
	return &memStore{
		volumes:   make(map[string]domain.Volume),
		loans:     make(map[string]domain.Loan),
		borrowers: make(map[string]domain.BorrowerPolicy),
		titles:    make(map[string]string),
		failOn:    make(map[string]error),
	}
}

func (m *memStore) addVolume(v domain.Volume) domain.Volume {
	if v.ID == "" {
		v.ID = newID()
	}
	if v.TitleID == "" {
		v.TitleID = newID()
	}
	if v.Condition == "" {
		v.Condition = domain.ConditionGood
	}
	if v.LoanStatus == "" {
		v.LoanStatus = domain.VolumeAvailable
	}
	m.volumes[v.ID] = v
	m.titles[v.TitleID] = "Title of " + v.Barcode
	return v
}

func (m *memStore) addBorrower(name string, groupDays int) string {
	id := newID()
	m.borrowers[id] = domain.BorrowerPolicy{BorrowerID: id, Name: name, LoanDurationDays: groupDays}
	return id
}

func (m *memStore) lock(ctx context.Context) func() {
	if ctx.Value(txMarker{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) fail(op string) error {
	return m.failOn[op]
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	volumes := make(map[string]domain.Volume, len(m.volumes))
	for k, v := range m.volumes {
		volumes[k] = v
	}
	loans := make(map[string]domain.Loan, len(m.loans))
	for k, v := range m.loans {
		loans[k] = v
	}

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		m.volumes = volumes
		m.loans = loans
		return err
	}
	return nil
}

func (m *memStore) GetVolumeByID(ctx context.Context, id string) (domain.Volume, error) {
	defer m.lock(ctx)()
	v, ok := m.volumes[id]
	if !ok {
		return domain.Volume{}, domain.ErrVolumeNotFound
	}
	return v, nil
}

func (m *memStore) GetVolumeForUpdate(ctx context.Context, id string) (domain.Volume, error) {
	return m.GetVolumeByID(ctx, id)
}

func (m *memStore) GetVolumeByBarcode(ctx context.Context, barcode string) (domain.Volume, error) {
	defer m.lock(ctx)()
	for _, v := range m.volumes {
		if v.Barcode == barcode {
			return v, nil
		}
	}
	return domain.Volume{}, domain.ErrVolumeNotFound
}

func (m *memStore) GetVolumeByBarcodeForUpdate(ctx context.Context, barcode string) (domain.Volume, error) {
	return m.GetVolumeByBarcode(ctx, barcode)
}

func (m *memStore) UpdateVolumeLoanStatus(ctx context.Context, id string, status domain.VolumeLoanStatus, now time.Time) error {
	defer m.lock(ctx)()
	if err := m.fail("UpdateVolumeLoanStatus"); err != nil {
		return err
	}
	v, ok := m.volumes[id]
	if !ok {
		return domain.ErrVolumeNotFound
	}
	v.LoanStatus = status
	v.UpdatedAt = now
	m.volumes[id] = v
	return nil
}

func (m *memStore) UpdateVolume(ctx context.Context, id string, upd domain.VolumeUpdate, now time.Time) (domain.Volume, error) {
	defer m.lock(ctx)()
	v, ok := m.volumes[id]
	if !ok {
		return domain.Volume{}, domain.ErrVolumeNotFound
	}
	if upd.Condition != nil {
		v.Condition = *upd.Condition
	}
	if upd.ClearLocation {
		v.LocationID = nil
	}
	if upd.LocationID != nil {
		loc := *upd.LocationID
		v.LocationID = &loc
	}
	if upd.Notes != nil {
		v.Notes = *upd.Notes
	}
	if upd.ReferenceOnly != nil {
		v.ReferenceOnly = *upd.ReferenceOnly
	}
	v.UpdatedAt = now
	m.volumes[id] = v
	return v, nil
}

func (m *memStore) DeleteVolume(ctx context.Context, id string) error {
	defer m.lock(ctx)()
	if _, ok := m.volumes[id]; !ok {
		return domain.ErrVolumeNotFound
	}
	delete(m.volumes, id)
	return nil
}

func (m *memStore) GetBorrowerPolicy(ctx context.Context, borrowerID string) (domain.BorrowerPolicy, error) {
	defer m.lock(ctx)()
	p, ok := m.borrowers[borrowerID]
	if !ok {
		return domain.BorrowerPolicy{}, domain.ErrBorrowerNotFound
	}
	return p, nil
}

func (m *memStore) GetLoanForUpdate(ctx context.Context, loanID string) (domain.Loan, error) {
	defer m.lock(ctx)()
	l, ok := m.loans[loanID]
	if !ok {
		return domain.Loan{}, domain.ErrLoanNotFound
	}
	return l, nil
}

func (m *memStore) CreateLoan(ctx context.Context, loan domain.Loan) error {
	defer m.lock(ctx)()
	if err := m.fail("CreateLoan"); err != nil {
		return err
	}
	for _, l := range m.loans {
		if l.VolumeID == loan.VolumeID && !l.Returned() {
			return domain.ErrAlreadyLoaned
		}
	}
	m.loans[loan.ID] = loan
	return nil
}

func (m *memStore) MarkLoanReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	defer m.lock(ctx)()
	if err := m.fail("MarkLoanReturned"); err != nil {
		return err
	}
	l, ok := m.loans[loanID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	ts := returnedAt
	l.ReturnDate = &ts
	l.Status = domain.LoanStatusReturned
	l.UpdatedAt = returnedAt
	m.loans[loanID] = l
	return nil
}

func (m *memStore) UpdateLoanExtension(ctx context.Context, loanID string, ext domain.Extension, now time.Time) error {
	defer m.lock(ctx)()
	l, ok := m.loans[loanID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	l.DueDate = ext.NewDueDate
	l.ExtensionCount = ext.ExtensionCount
	l.UpdatedAt = now
	m.loans[loanID] = l
	return nil
}

func (m *memStore) detail(l domain.Loan) domain.LoanDetail {
	v := m.volumes[l.VolumeID]
	b := m.borrowers[l.BorrowerID]
	return domain.LoanDetail{
		Loan:          l,
		Title:         m.titles[l.TitleID],
		Barcode:       v.Barcode,
		BorrowerName:  b.Name,
		BorrowerEmail: b.Email,
	}
}

func (m *memStore) GetLoanDetail(ctx context.Context, loanID string) (domain.LoanDetail, error) {
	defer m.lock(ctx)()
	l, ok := m.loans[loanID]
	if !ok {
		return domain.LoanDetail{}, domain.ErrLoanNotFound
	}
	return m.detail(l), nil
}

func (m *memStore) ListOpenLoans(ctx context.Context) ([]domain.LoanDetail, error) {
	defer m.lock(ctx)()
	if err := m.fail("ListOpenLoans"); err != nil {
		return nil, err
	}
	var out []domain.LoanDetail
	for _, l := range m.loans {
		if !l.Returned() {
			out = append(out, m.detail(l))
		}
	}
	sortByDue(out)
	return out, nil
}

func (m *memStore) ListOverdueLoans(ctx context.Context, now time.Time) ([]domain.LoanDetail, error) {
	defer m.lock(ctx)()
	var out []domain.LoanDetail
	for _, l := range m.loans {
		if !l.Returned() && l.DueDate.Before(now) {
			out = append(out, m.detail(l))
		}
	}
	sortByDue(out)
	return out, nil
}

func (m *memStore) ListLoansByBorrower(ctx context.Context, borrowerID string) ([]domain.LoanDetail, error) {
	defer m.lock(ctx)()
	var out []domain.LoanDetail
	for _, l := range m.loans {
		if l.BorrowerID == borrowerID {
			out = append(out, m.detail(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoanDate.After(out[j].LoanDate) })
	return out, nil
}

func sortByDue(loans []domain.LoanDetail) {
	sort.Slice(loans, func(i, j int) bool { return loans[i].DueDate.Before(loans[j].DueDate) })
}

var errDiskFull = errors.New("could not extend file: No space left on device")
