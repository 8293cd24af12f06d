package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"splitledger/internal/core"
	"splitledger/internal/services"
	"splitledger/internal/storage"
)

// fakeStore is an in-memory storage.Store for boundary tests.
type fakeStore struct {
	accounts map[string]core.Account
	expenses []core.Expense
	shares   []core.ShareRecord
	nextID   int64
}

var _ storage.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]core.Account), nextID: 1}
}

func (f *fakeStore) CreateAccount(_ context.Context, account core.Account) error {
	if _, ok := f.accounts[account.Email]; ok {
		return storage.ErrAccountExists
	}
	f.accounts[account.Email] = account
	return nil
}

func (f *fakeStore) AccountExists(_ context.Context, email string) (bool, error) {
	_, ok := f.accounts[email]
	return ok, nil
}

func (f *fakeStore) CreateExpense(_ context.Context, expense *core.Expense, shares []core.Share, strategy core.Strategy) error {
	expense.ID = f.nextID
	f.nextID++
	expense.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.expenses = append(f.expenses, *expense)
	for _, s := range shares {
		f.shares = append(f.shares, core.ShareRecord{
			ID:              int64(len(f.shares) + 1),
			OwnerID:         expense.OwnerID,
			ExpenseID:       expense.ID,
			ParticipantName: s.ParticipantName,
			Amount:          s.Amount,
			Strategy:        strategy,
		})
	}
	return nil
}

func (f *fakeStore) FindExpensesByOwner(_ context.Context, owner string) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if e.OwnerID == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindSharesByExpense(_ context.Context, expenseID int64) ([]core.ShareRecord, error) {
	var out []core.ShareRecord
	for _, s := range f.shares {
		if s.ExpenseID == expenseID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) FindSharesByOwnerAndParticipant(_ context.Context, owner, participant string) ([]core.ShareRecord, error) {
	var out []core.ShareRecord
	for _, s := range f.shares {
		if s.OwnerID == owner && s.ParticipantName == participant {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) SumShareAmounts(_ context.Context, owner, participant string) (core.Money, error) {
	var sum core.Money
	for _, s := range f.shares {
		if s.OwnerID == owner && s.ParticipantName == participant {
			sum = sum.Add(s.Amount)
		}
	}
	return sum, nil
}

func (f *fakeStore) SumExpenseTotals(_ context.Context, owner string) (core.Money, error) {
	var sum core.Money
	for _, e := range f.expenses {
		if e.OwnerID == owner {
			sum = sum.Add(e.Total)
		}
	}
	return sum, nil
}

func (f *fakeStore) Close() error { return nil }

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	s := NewServer(":0",
		store,
		services.NewLedgerService(store, nil),
		services.NewAggregationService(store),
		services.NewStatementService(store),
		false,
	)
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s, store
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func errorKindOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Kind
}

func registerOwner(t *testing.T, s *Server, email string) {
	t.Helper()
	rec := postForm(s, "/register", url.Values{
		"email": {email},
		"name":  {"Owner"},
		"phone": {"555-0100"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, rec.Code, rec.Body.String())
	}
}

func TestRegister(t *testing.T) {
	s, _ := newTestServer(t)

	registerOwner(t, s, "owner@example.com")

	// Duplicate email conflicts.
	rec := postForm(s, "/register", url.Values{
		"email": {"owner@example.com"},
		"name":  {"Again"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if kind := errorKindOf(t, rec); kind != "account_exists" {
		t.Fatalf("expected account_exists, got %s", kind)
	}

	// Missing name is invalid input.
	rec = postForm(s, "/register", url.Values{"email": {"other@example.com"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if kind := errorKindOf(t, rec); kind != "invalid_input" {
		t.Fatalf("expected invalid_input, got %s", kind)
	}
}

func TestRegisterAcceptsJSON(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"email":"json@example.com","name":"Json","phone":"555-0101"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateExpense(t *testing.T) {
	s, store := newTestServer(t)
	registerOwner(t, s, "owner@example.com")

	rec := postForm(s, "/expense", url.Values{
		"email":        {"owner@example.com"},
		"expense_name": {"electricity"},
		"total":        {"100.00"},
		"share_type":   {"equal"},
		"participants": {"Ana, Bo, Cy"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["share_type"] != "EQUAL" {
		t.Fatalf("expected share_type EQUAL, got %v", body["share_type"])
	}
	if body["expense_id"] == nil {
		t.Fatalf("missing expense_id in %v", body)
	}

	shares, _ := store.FindSharesByExpense(context.Background(), 1)
	if len(shares) != 3 {
		t.Fatalf("expected 3 share records, got %d", len(shares))
	}
	if shares[2].Amount.Cents != 3334 {
		t.Fatalf("last equal share must absorb the remainder, got %d", shares[2].Amount.Cents)
	}
}

func TestCreateExpenseExactAndPercent(t *testing.T) {
	s, store := newTestServer(t)
	registerOwner(t, s, "owner@example.com")

	rec := postForm(s, "/expense", url.Values{
		"email":        {"owner@example.com"},
		"expense_name": {"lunch"},
		"total":        {"90.00"},
		"share_type":   {"EXACT"},
		"participants": {"Ana,Bo"},
		"exact_share":  {"30.00,60.00"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("exact: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postForm(s, "/expense", url.Values{
		"email":         {"owner@example.com"},
		"expense_name":  {"rent"},
		"total":         {"200.00"},
		"share_type":    {"PERCENT"},
		"participants":  {"Ana,Bo,Cy"},
		"percent_share": {"50,25,25"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("percent: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	shares, _ := store.FindSharesByExpense(context.Background(), 2)
	if len(shares) != 3 || shares[0].Amount.Cents != 10000 {
		t.Fatalf("unexpected percent shares: %+v", shares)
	}
}

func TestCreateExpenseErrors(t *testing.T) {
	s, _ := newTestServer(t)
	registerOwner(t, s, "owner@example.com")

	cases := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantKind   string
	}{
		{
			name: "unknown account",
			form: url.Values{
				"email":        {"ghost@example.com"},
				"expense_name": {"x"},
				"total":        {"10.00"},
				"share_type":   {"EQUAL"},
				"participants": {"Ana"},
			},
			wantStatus: http.StatusNotFound,
			wantKind:   "account_not_found",
		},
		{
			name: "unknown strategy",
			form: url.Values{
				"email":        {"owner@example.com"},
				"expense_name": {"x"},
				"total":        {"10.00"},
				"share_type":   {"RATIO"},
				"participants": {"Ana"},
			},
			wantStatus: http.StatusBadRequest,
			wantKind:   "unknown_strategy",
		},
		{
			name: "count mismatch",
			form: url.Values{
				"email":        {"owner@example.com"},
				"expense_name": {"x"},
				"total":        {"10.00"},
				"share_type":   {"EXACT"},
				"participants": {"Ana,Bo"},
				"exact_share":  {"10.00"},
			},
			wantStatus: http.StatusBadRequest,
			wantKind:   "count_mismatch",
		},
		{
			name: "percent sum mismatch",
			form: url.Values{
				"email":         {"owner@example.com"},
				"expense_name":  {"x"},
				"total":         {"10.00"},
				"share_type":    {"PERCENT"},
				"participants":  {"Ana,Bo,Cy"},
				"percent_share": {"50,25,20"},
			},
			wantStatus: http.StatusBadRequest,
			wantKind:   "percent_sum_mismatch",
		},
		{
			name: "negative total",
			form: url.Values{
				"email":        {"owner@example.com"},
				"expense_name": {"x"},
				"total":        {"-10.00"},
				"share_type":   {"EQUAL"},
				"participants": {"Ana"},
			},
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postForm(s, "/expense", tc.form)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if kind := errorKindOf(t, rec); kind != tc.wantKind {
				t.Fatalf("expected kind %s, got %s", tc.wantKind, kind)
			}
		})
	}
}

func TestSumParticipant(t *testing.T) {
	s, _ := newTestServer(t)
	registerOwner(t, s, "owner@example.com")

	rec := postForm(s, "/expense", url.Values{
		"email":        {"owner@example.com"},
		"expense_name": {"lunch"},
		"total":        {"90.00"},
		"share_type":   {"EXACT"},
		"participants": {"Ana,Bo"},
		"exact_share":  {"30.00,60.00"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup expense: %d", rec.Code)
	}

	rec = postForm(s, "/retrieval/individual/Bo", url.Values{"email": {"owner@example.com"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["total"] != "60.00" {
		t.Fatalf("expected total 60.00, got %v", body["total"])
	}

	// A participant with no shares is a successful zero.
	rec = postForm(s, "/retrieval/individual/Nobody", url.Values{"email": {"owner@example.com"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["total"] != "0.00" {
		t.Fatalf("expected total 0.00, got %v", body["total"])
	}

	// Unknown account is not found.
	rec = postForm(s, "/retrieval/individual/Bo", url.Values{"email": {"ghost@example.com"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSumOverall(t *testing.T) {
	s, _ := newTestServer(t)
	registerOwner(t, s, "owner@example.com")

	for _, total := range []string{"100.00", "25.50"} {
		rec := postForm(s, "/expense", url.Values{
			"email":        {"owner@example.com"},
			"expense_name": {"expense"},
			"total":        {total},
			"share_type":   {"EQUAL"},
			"participants": {"Ana,Bo"},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("setup expense: %d", rec.Code)
		}
	}

	rec := postForm(s, "/retrieval/overall", url.Values{"email": {"owner@example.com"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["total"] != "125.50" {
		t.Fatalf("expected total 125.50, got %v", body["total"])
	}

	// An account with no expenses still answers 200 with zero.
	registerOwner(t, s, "fresh@example.com")
	rec = postForm(s, "/retrieval/overall", url.Values{"email": {"fresh@example.com"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty account, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["total"] != "0.00" {
		t.Fatalf("expected total 0.00, got %v", body["total"])
	}
}

func TestBalanceSheet(t *testing.T) {
	s, _ := newTestServer(t)
	registerOwner(t, s, "owner@example.com")

	rec := postForm(s, "/expense", url.Values{
		"email":        {"owner@example.com"},
		"expense_name": {"lunch"},
		"total":        {"90.00"},
		"share_type":   {"EXACT"},
		"participants": {"Ana,Bo"},
		"exact_share":  {"30.00,60.00"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup expense: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/balance_sheet?email=owner@example.com", nil)
	out := httptest.NewRecorder()
	s.Handler.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", out.Code, out.Body.String())
	}
	if ct := out.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	if cd := out.Header().Get("Content-Disposition"); !strings.Contains(cd, "balance_sheet.csv") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.Contains(out.Body.String(), "lunch,2024-05-01 12:00:00,90.00,Ana,30.00,EXACT") {
		t.Fatalf("missing heading row in %q", out.Body.String())
	}
}

func TestBalanceSheetUnknownAccount(t *testing.T) {
	s, _ := newTestServer(t)

	// An unregistered email is not-found, not "registered but empty".
	req := httptest.NewRequest(http.MethodGet, "/balance_sheet?email=ghost@example.com", nil)
	out := httptest.NewRecorder()
	s.Handler.ServeHTTP(out, req)
	if out.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", out.Code)
	}
	if kind := errorKindOf(t, out); kind != "account_not_found" {
		t.Fatalf("expected account_not_found, got %s", kind)
	}
}

func TestBalanceSheetEmptyAccount(t *testing.T) {
	s, _ := newTestServer(t)
	registerOwner(t, s, "owner@example.com")

	req := httptest.NewRequest(http.MethodGet, "/balance_sheet?email=owner@example.com", nil)
	out := httptest.NewRecorder()
	s.Handler.ServeHTTP(out, req)
	if out.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", out.Code)
	}
	if kind := errorKindOf(t, out); kind != "empty_expense_set" {
		t.Fatalf("expected empty_expense_set, got %s", kind)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
