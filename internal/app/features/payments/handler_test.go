package payments_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aloria/backoffice/internal/app/features/payments"
	clientstore "github.com/aloria/backoffice/internal/app/store/clients"
	counterstore "github.com/aloria/backoffice/internal/app/store/counters"
	notificationstore "github.com/aloria/backoffice/internal/app/store/notifications"
	paymentstore "github.com/aloria/backoffice/internal/app/store/payments"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/artifacts"
	"github.com/aloria/backoffice/internal/app/system/invoice"
	"github.com/aloria/backoffice/internal/app/system/mailer"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/paymentflow"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/aloria/backoffice/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var invoiceNumber = regexp.MustCompile(`^ALO-\d{8}-\d{4}$`)

func newTestHandler(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	store, err := artifacts.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	flow := &paymentflow.Service{
		Payments:  paymentstore.New(db),
		Clients:   clientstore.New(db),
		Users:     userstore.New(db),
		Counters:  counterstore.New(db),
		Renderer:  invoice.PDFRenderer{},
		Artifacts: store,
		Notifier:  notify.New(notificationstore.New(db), logger),
		Mailer:    mailer.New(&mailer.MemorySender{}, mailer.Address{Email: "no-reply@aloria.test"}, logger),
		Issuer:    invoice.DefaultIssuer,
		SiteName:  "Aloria",
		BaseURL:   "https://api.aloria.test",
		Now:       time.Now,
		Log:       logger,
	}
	h := payments.NewHandler(flow, logger)

	r := chi.NewRouter()
	r.Mount("/payments", payments.Routes(h))
	r.Mount("/invoices", payments.InvoiceRoutes(h))
	return r, testutil.NewFixtures(t, db)
}

func call(t *testing.T, h http.Handler, method, path string, u testutil.TestUser, body any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, method, path, body), u))
	return rec
}

type view struct {
	ID               string  `json:"id"`
	Amount           string  `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	AwaitingCode     bool    `json:"awaiting_code"`
	InvoiceNumber    *string `json:"invoice_number"`
	InvoiceURL       string  `json:"invoice_url"`
	InvoiceAvailable bool    `json:"invoice_available"`
	EmailSent        bool    `json:"email_sent"`
}

func TestTwoStepConfirmation_EndToEnd(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	emp := fixtures.CreateUser(ctx, "Emp", "emp@example.com", models.RoleEmployee)
	mgr := testutil.AsUser(fixtures.CreateUser(ctx, "Mgr", "mgr@example.com", models.RoleManager))
	owner, _ := fixtures.CreateClientWithUser(ctx, "Owner", "owner@example.com", &emp)
	stranger, _ := fixtures.CreateClientWithUser(ctx, "Stranger", "stranger@example.com", nil)
	client := testutil.AsUser(owner)

	// Declare.
	rec := call(t, h, http.MethodPost, "/payments/declare", client, map[string]any{
		"amount": "1500.50", "currency": "eur", "payment_method": "virement", "description": "Frais de dossier",
	})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var declared view
	testutil.DecodeJSON(t, rec, &declared)
	if declared.Status != models.PaymentPending || declared.Currency != "EUR" || declared.Amount != "1500.5" {
		t.Fatalf("declared: %+v", declared)
	}

	var pending []view
	testutil.DecodeJSON(t, call(t, h, http.MethodGet, "/payments/pending", mgr, nil), &pending)
	if len(pending) != 1 || pending[0].ID != declared.ID {
		t.Fatalf("pending: %+v", pending)
	}
	testutil.AssertStatus(t, call(t, h, http.MethodGet, "/payments/pending", client, nil), http.StatusForbidden)

	confirmPath := "/payments/" + declared.ID + "/confirm"

	// Step 1 issues a code.
	rec = call(t, h, http.MethodPatch, confirmPath, mgr, map[string]string{"action": "confirmed"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var issued struct {
		Status           string `json:"status"`
		ConfirmationCode string `json:"confirmation_code"`
	}
	testutil.DecodeJSON(t, rec, &issued)
	if issued.Status != models.PaymentPending || len(issued.ConfirmationCode) != 6 {
		t.Fatalf("issued: %+v", issued)
	}

	// A wrong code leaves the payment pending.
	rec = call(t, h, http.MethodPatch, confirmPath, mgr, map[string]string{"action": "CONFIRMED", "confirmation_code": "WRONG1"})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	// Step 2 confirms.
	rec = call(t, h, http.MethodPatch, confirmPath, mgr, map[string]string{"action": "CONFIRMED", "confirmation_code": issued.ConfirmationCode})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var confirmed view
	testutil.DecodeJSON(t, rec, &confirmed)
	if confirmed.Status != models.PaymentConfirmed || confirmed.InvoiceNumber == nil || !invoiceNumber.MatchString(*confirmed.InvoiceNumber) {
		t.Fatalf("confirmed: %+v", confirmed)
	}
	if !strings.HasSuffix(confirmed.InvoiceURL, "/invoices/"+*confirmed.InvoiceNumber) || !confirmed.EmailSent {
		t.Errorf("invoice url / email: %q, %v", confirmed.InvoiceURL, confirmed.EmailSent)
	}

	// Terminal: a second confirmation is rejected.
	rec = call(t, h, http.MethodPatch, confirmPath, mgr, map[string]string{"action": "CONFIRMED", "confirmation_code": issued.ConfirmationCode})
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	// Downloads.
	rec = call(t, h, http.MethodGet, "/payments/"+declared.ID+"/invoice", client, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, *confirmed.InvoiceNumber) {
		t.Errorf("Content-Disposition: got %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected a PDF body")
	}

	testutil.AssertStatus(t, call(t, h, http.MethodGet, "/invoices/"+*confirmed.InvoiceNumber, client, nil), http.StatusOK)
	testutil.AssertStatus(t, call(t, h, http.MethodGet, "/invoices/"+*confirmed.InvoiceNumber, mgr, nil), http.StatusOK)
	testutil.AssertStatus(t, call(t, h, http.MethodGet, "/payments/"+declared.ID+"/invoice", testutil.AsUser(stranger), nil), http.StatusForbidden)
	testutil.AssertStatus(t, call(t, h, http.MethodGet, "/invoices/ALO-20000101-9999", testutil.AsUser(stranger), nil), http.StatusForbidden)
	testutil.AssertStatus(t, call(t, h, http.MethodGet, "/invoices/ALO-20000101-9999", mgr, nil), http.StatusNotFound)

	// Re-render is allowed for staff on confirmed payments.
	testutil.AssertStatus(t, call(t, h, http.MethodPost, "/payments/"+declared.ID+"/invoice/render", mgr, nil), http.StatusOK)

	var history []view
	testutil.DecodeJSON(t, call(t, h, http.MethodGet, "/payments/history", mgr, nil), &history)
	if len(history) != 1 || history[0].Status != models.PaymentConfirmed || !history[0].InvoiceAvailable {
		t.Errorf("history: %+v", history)
	}
	var mine []view
	testutil.DecodeJSON(t, call(t, h, http.MethodGet, "/payments/client-history", client, nil), &mine)
	if len(mine) != 1 {
		t.Errorf("client history: %+v", mine)
	}
}

func TestReject(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, c := fixtures.CreateClientWithUser(ctx, "Owner", "owner@example.com", nil)
	p := fixtures.CreatePendingPayment(ctx, c, u, "80.00")
	mgr := testutil.ManagerUser()

	rec := call(t, h, http.MethodPatch, "/payments/"+p.ID.Hex()+"/confirm", mgr,
		map[string]string{"action": "REJECTED", "rejection_reason": "Virement introuvable"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got view
	testutil.DecodeJSON(t, rec, &got)
	if got.Status != models.PaymentRejected || got.InvoiceNumber != nil {
		t.Errorf("rejected: %+v", got)
	}

	testutil.AssertStatus(t, call(t, h, http.MethodGet, "/payments/"+p.ID.Hex()+"/invoice", testutil.AsUser(u), nil), http.StatusNotFound)
	testutil.AssertStatus(t, call(t, h, http.MethodPost, "/payments/"+p.ID.Hex()+"/invoice/render", mgr, nil), http.StatusBadRequest)
}

func TestDeclare_Validation(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := fixtures.CreateClientWithUser(ctx, "Owner", "owner@example.com", nil)
	noProfile := fixtures.CreateUser(ctx, "Bare", "bare@example.com", models.RoleClient)

	tests := []struct {
		name string
		user models.User
		body map[string]any
		want int
	}{
		{"zero amount", u, map[string]any{"amount": "0", "payment_method": "carte"}, http.StatusBadRequest},
		{"negative amount", u, map[string]any{"amount": -5, "payment_method": "carte"}, http.StatusBadRequest},
		{"unknown currency", u, map[string]any{"amount": "10", "currency": "JPY", "payment_method": "carte"}, http.StatusBadRequest},
		{"missing method", u, map[string]any{"amount": "10"}, http.StatusBadRequest},
		{"no client profile", noProfile, map[string]any{"amount": "10", "payment_method": "carte"}, http.StatusNotFound},
		{"default currency", u, map[string]any{"amount": 10, "payment_method": "carte"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, h, http.MethodPost, "/payments/declare", testutil.AsUser(tt.user), tt.body)
			testutil.AssertStatus(t, rec, tt.want)
		})
	}
}
