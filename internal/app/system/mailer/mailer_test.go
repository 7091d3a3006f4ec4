package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMailer_SendDelegatesToSender(t *testing.T) {
	mem := &MemorySender{}
	m := New(mem, Address{Email: "no-reply@aloria.test", Name: "Aloria"}, zap.NewNop())

	if err := m.Send(context.Background(), Email{To: "ana@example.com", Subject: "Hi", TextBody: "Hello"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	sent := mem.Sent()
	if len(sent) != 1 || sent[0].To != "ana@example.com" {
		t.Fatalf("unexpected sent mails: %+v", sent)
	}
}

func TestMailer_SendRequiresRecipient(t *testing.T) {
	m := New(&MemorySender{}, Address{Email: "no-reply@aloria.test"}, nil)
	if err := m.Send(context.Background(), Email{Subject: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("expected ErrNoRecipient, got %v", err)
	}
}

func TestMailer_TrySendReportsFailure(t *testing.T) {
	mem := &MemorySender{Err: errors.New("provider down")}
	m := New(mem, Address{Email: "no-reply@aloria.test"}, zap.NewNop())
	if m.TrySend(context.Background(), Email{To: "a@example.com"}) {
		t.Error("expected TrySend to report false on sender error")
	}

	var nilMailer *Mailer
	if nilMailer.TrySend(context.Background(), Email{To: "a@example.com"}) {
		t.Error("expected nil mailer to report false")
	}
}

func TestSMTPSender_BuildsMultipartMessage(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", User: "u", Pass: "p"})
	if err != nil {
		t.Fatalf("NewSMTPSender failed: %v", err)
	}

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	e := BuildWelcomeEmail(WelcomeEmailData{
		SiteName: "Aloria", FullName: "Ana Diaz", Email: "ana@example.com",
		TemporaryPassword: "Abc234xyz789", LoginURL: "https://aloria.test/login",
	})
	if err := s.Send(context.Background(), Address{Email: "no-reply@aloria.test", Name: "Aloria"}, e); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr: got %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "ana@example.com" {
		t.Errorf("to: got %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{"multipart/alternative", "text/plain", "text/html", "Abc234xyz789"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestLogSender_KeepsBodyOutOfLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := LogSender{Log: zap.New(core)}

	e := BuildWelcomeEmail(WelcomeEmailData{
		SiteName: "Aloria", FullName: "Ana Diaz", Email: "ana@example.com",
		TemporaryPassword: "Abc234xyz789", LoginURL: "https://aloria.test/login",
	})
	if err := s.Send(context.Background(), Address{Email: "no-reply@aloria.test"}, e); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["to"] != "ana@example.com" || fields["subject"] != e.Subject {
		t.Errorf("expected envelope in log, got %v", fields)
	}
	for _, entry := range entries {
		for k, v := range entry.ContextMap() {
			if str, ok := v.(string); ok && strings.Contains(str, "Abc234xyz789") {
				t.Errorf("temporary password leaked in log field %q", k)
			}
		}
	}
}

func TestNewSendGridSender_RequiresKey(t *testing.T) {
	if _, err := NewSendGridSender(""); err == nil {
		t.Error("expected error for empty api key")
	}
}

func TestBuildWelcomeEmail(t *testing.T) {
	e := BuildWelcomeEmail(WelcomeEmailData{
		SiteName: "Aloria", FullName: "Ana <b>Diaz</b>", Email: "ana@example.com",
		TemporaryPassword: "Abc234xyz789", LoginURL: "https://aloria.test/login",
	})
	if e.To != "ana@example.com" {
		t.Errorf("To: got %q", e.To)
	}
	if !strings.Contains(e.TextBody, "Abc234xyz789") || !strings.Contains(e.HTMLBody, "Abc234xyz789") {
		t.Error("expected temporary password in both bodies")
	}
	if strings.Contains(e.HTMLBody, "<b>Diaz</b>") {
		t.Error("expected names to be escaped in HTML body")
	}
}

func TestBuildPaymentConfirmedEmail_OmitsMissingInvoiceLink(t *testing.T) {
	e := BuildPaymentConfirmedEmail(PaymentConfirmedEmailData{
		SiteName: "Aloria", To: "c@example.com", FullName: "C", Amount: "150.00",
		Currency: "EUR", InvoiceNumber: "ALO-20261014-0001",
	})
	if !strings.Contains(e.Subject, "ALO-20261014-0001") {
		t.Errorf("subject: got %q", e.Subject)
	}
	if strings.Contains(e.HTMLBody, "Télécharger la facture") {
		t.Error("expected no download link without an invoice URL")
	}
}

func TestBuildCaseUpdateAndRejectedEmails(t *testing.T) {
	cu := BuildCaseUpdateEmail(CaseUpdateEmailData{
		SiteName: "Aloria", To: "c@example.com", FullName: "C",
		Status: "en_cours", CurrentStep: "Dépôt du dossier", Progress: 40,
	})
	if !strings.Contains(cu.TextBody, "40%") {
		t.Errorf("case update text missing progress: %q", cu.TextBody)
	}

	rj := BuildPaymentRejectedEmail(PaymentRejectedEmailData{
		SiteName: "Aloria", To: "c@example.com", FullName: "C",
		Amount: "10.00", Currency: "EUR", Reason: "Virement introuvable",
	})
	if !strings.Contains(rj.HTMLBody, "Virement introuvable") {
		t.Error("expected reason in rejected email")
	}
}
