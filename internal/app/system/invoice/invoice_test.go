package invoice

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/shopspring/decimal"
)

func sampleData() Data {
	return Data{
		Issuer:        DefaultIssuer,
		InvoiceNumber: "ALO-20261014-0007",
		ClientName:    "Amélie Ngoumou",
		ClientEmail:   "amelie@example.com",
		Description:   "Frais de dossier visa Étudiant",
		PaymentMethod: "virement",
		Amount:        decimal.RequireFromString("1500.5"),
		Currency:      "EUR",
		DeclaredAt:    time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC),
		ConfirmedAt:   time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC),
		ConfirmedBy:   "Marc Manager",
		RenderedAt:    time.Date(2026, 10, 14, 15, 30, 1, 0, time.UTC),
	}
}

func TestNumberFor(t *testing.T) {
	day := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)
	tests := []struct {
		seq  int64
		want string
	}{
		{1, "ALO-20261014-0001"},
		{42, "ALO-20261014-0042"},
		{12345, "ALO-20261014-12345"},
	}
	for _, tt := range tests {
		got := NumberFor(day, tt.seq)
		if got != tt.want {
			t.Errorf("NumberFor(%d) = %q, want %q", tt.seq, got, tt.want)
		}
		if !ValidNumber(got) {
			t.Errorf("ValidNumber(%q) = false", got)
		}
	}
	if CounterKey(day) != "invoice-20261014" {
		t.Errorf("CounterKey: got %q", CounterKey(day))
	}
}

func TestValidNumber_Rejects(t *testing.T) {
	for _, s := range []string{"", "ALO-2026-0001", "alo-20261014-0001", "ALO-20261014-01", "../ALO-20261014-0001"} {
		if ValidNumber(s) {
			t.Errorf("ValidNumber(%q) = true", s)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"0", "EUR", "0,00"},
		{"150", "EUR", "150,00"},
		{"1500.5", "EUR", "1 500,50"},
		{"1234567.891", "USD", "1 234 567,89"},
		{"50000", "XAF", "50 000"},
		{"-12.3", "EUR", "-12,30"},
	}
	for _, tt := range tests {
		got := FormatAmount(decimal.RequireFromString(tt.amount), tt.currency)
		if got != tt.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	for format, want := range map[string]string{"": FormatPDF, "pdf": FormatPDF, "PNG": FormatPNG} {
		r, err := New(format)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", format, err)
		}
		if r.Format() != want {
			t.Errorf("New(%q).Format() = %q, want %q", format, r.Format(), want)
		}
	}
	if _, err := New("docx"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPDFRenderer(t *testing.T) {
	art, err := PDFRenderer{}.Render(sampleData())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(art.Bytes, []byte("%PDF-")) {
		t.Errorf("expected PDF header, got %q", art.Bytes[:8])
	}
	if art.ContentType != "application/pdf" || art.Filename != "ALO-20261014-0007.pdf" {
		t.Errorf("unexpected artifact metadata: %q %q", art.ContentType, art.Filename)
	}

	again, err := PDFRenderer{}.Render(sampleData())
	if err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	if !bytes.Equal(art.Bytes, again.Bytes) {
		t.Error("expected identical output for identical data")
	}
}

func TestPNGRenderer(t *testing.T) {
	art, err := PNGRenderer{}.Render(sampleData())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if art.ContentType != "image/png" || art.Filename != "ALO-20261014-0007.png" {
		t.Errorf("unexpected artifact metadata: %q %q", art.ContentType, art.Filename)
	}

	img, err := png.Decode(bytes.NewReader(art.Bytes))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != cardWidth || b.Dy() != cardHeight {
		t.Errorf("size: got %dx%d", b.Dx(), b.Dy())
	}

	again, _ := PNGRenderer{}.Render(sampleData())
	if !bytes.Equal(art.Bytes, again.Bytes) {
		t.Error("expected identical output for identical data")
	}
}

func TestAsciiFold(t *testing.T) {
	if got := asciiFold("Étudiant à Montréal 100€"); got != "Etudiant a Montreal 100E" {
		t.Errorf("asciiFold: got %q", got)
	}
}

func TestFromPayment(t *testing.T) {
	num := "ALO-20261014-0001"
	confirmed := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	amount, _ := models.DecimalToBSON(decimal.RequireFromString("99.90"))
	p := models.Payment{
		ClientName: "C", Amount: amount, Currency: "CAD",
		InvoiceNumber: &num, ConfirmedAt: &confirmed,
	}
	d := FromPayment(p, "c@example.com", "M", DefaultIssuer, confirmed)
	if d.InvoiceNumber != num || !d.ConfirmedAt.Equal(confirmed) || d.ClientEmail != "c@example.com" {
		t.Errorf("unexpected data: %+v", d)
	}
	if !d.Amount.Equal(decimal.RequireFromString("99.9")) {
		t.Errorf("Amount: got %s", d.Amount)
	}
}
