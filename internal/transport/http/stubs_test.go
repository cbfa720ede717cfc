package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cimillas/shelfkeeper/internal/app"
	"github.com/cimillas/shelfkeeper/internal/domain"
)

var errStore = errors.New("pq: connection reset by peer")

type stubLedger struct {
	createIn  app.CreateLoanInput
	createRes app.CreateLoanResult
	returnRes app.ReturnLoanResult
	extendRes app.ExtendLoanResult
	detail    domain.LoanDetail
	list      []domain.LoanDetail
	err       error
}

func (s *stubLedger) CreateLoan(_ context.Context, in app.CreateLoanInput) (app.CreateLoanResult, error) {
	s.createIn = in
	return s.createRes, s.err
}

func (s *stubLedger) ReturnLoan(context.Context, string) (app.ReturnLoanResult, error) {
	return s.returnRes, s.err
}

func (s *stubLedger) ExtendLoan(context.Context, string) (app.ExtendLoanResult, error) {
	return s.extendRes, s.err
}

func (s *stubLedger) GetLoan(context.Context, string) (domain.LoanDetail, error) {
	return s.detail, s.err
}

func (s *stubLedger) ListActiveLoans(context.Context) ([]domain.LoanDetail, error) {
	return s.list, s.err
}

func (s *stubLedger) ListOverdueLoans(context.Context) ([]domain.LoanDetail, error) {
	return s.list, s.err
}

func (s *stubLedger) ListBorrowerLoans(context.Context, string) ([]domain.LoanDetail, error) {
	return s.list, s.err
}

type stubVolumes struct {
	volume  domain.Volume
	update  domain.VolumeUpdate
	deleted string
	err     error
}

func (s *stubVolumes) FindByBarcode(context.Context, string) (domain.Volume, error) {
	return s.volume, s.err
}

func (s *stubVolumes) FindByID(context.Context, string) (domain.Volume, error) {
	return s.volume, s.err
}

func (s *stubVolumes) Update(_ context.Context, _ string, upd domain.VolumeUpdate) (domain.Volume, error) {
	s.update = upd
	return s.volume, s.err
}

func (s *stubVolumes) Delete(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(ledger *stubLedger, volumes *stubVolumes) http.Handler {
	if ledger == nil {
		ledger = &stubLedger{}
	}
	if volumes == nil {
		volumes = &stubVolumes{}
	}
	return NewRouter(RouterConfig{Loans: ledger, Volumes: volumes})
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := jsonAPI.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}
