// internal/app/system/invoice/invoice.go
//
// Package invoice numbers confirmed payments and renders their invoices as
// PDF documents or PNG cards.
package invoice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Formats accepted by New.
const (
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// Issuer identifies the agency on the invoice.
type Issuer struct {
	Name    string
	Address string
	Email   string
	Website string
}

// DefaultIssuer is printed when no issuer is configured.
var DefaultIssuer = Issuer{
	Name:    "Aloria Agency",
	Address: "Paris, France",
	Email:   "contact@aloria-agency.com",
	Website: "aloria-agency.com",
}

// Data is everything printed on an invoice.
type Data struct {
	Issuer        Issuer
	InvoiceNumber string
	ClientName    string
	ClientEmail   string
	Description   string
	PaymentMethod string
	Amount        decimal.Decimal
	Currency      string
	DeclaredAt    time.Time
	ConfirmedAt   time.Time
	ConfirmedBy   string
	// RenderedAt is stamped into document metadata. Callers pass the clock
	// so output is reproducible.
	RenderedAt time.Time
}

// FromPayment builds Data for a confirmed payment.
func FromPayment(p models.Payment, clientEmail, confirmedBy string, issuer Issuer, renderedAt time.Time) Data {
	d := Data{
		Issuer:        issuer,
		ClientName:    p.ClientName,
		ClientEmail:   clientEmail,
		Description:   p.Description,
		PaymentMethod: p.PaymentMethod,
		Amount:        p.AmountDecimal(),
		Currency:      p.Currency,
		DeclaredAt:    p.DeclaredAt,
		ConfirmedBy:   confirmedBy,
		RenderedAt:    renderedAt.UTC(),
	}
	if p.InvoiceNumber != nil {
		d.InvoiceNumber = *p.InvoiceNumber
	}
	if p.ConfirmedAt != nil {
		d.ConfirmedAt = *p.ConfirmedAt
	}
	return d
}

// Artifact is a rendered invoice.
type Artifact struct {
	ContentType string
	Filename    string
	Bytes       []byte
}

// Renderer turns invoice data into a downloadable artifact.
type Renderer interface {
	Render(d Data) (Artifact, error)
	Format() string
}

// New returns the renderer for format ("pdf" or "png").
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatPDF:
		return PDFRenderer{}, nil
	case FormatPNG:
		return PNGRenderer{}, nil
	default:
		return nil, fmt.Errorf("invoice: unknown format %q", format)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Numbering                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

var numberPattern = regexp.MustCompile(`^ALO-\d{8}-\d{4,}$`)

// NumberFor formats the invoice number for the seq-th confirmation of day.
func NumberFor(day time.Time, seq int64) string {
	return fmt.Sprintf("ALO-%s-%04d", day.UTC().Format("20060102"), seq)
}

// CounterKey names the per-day sequence used by NumberFor.
func CounterKey(day time.Time) string {
	return "invoice-" + day.UTC().Format("20060102")
}

// ValidNumber reports whether s has the shape of an invoice number.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// Key is the artifact storage key of an invoice.
func Key(number, format string) string {
	return "invoices/" + number + "." + format
}

// ContentTypeFor maps a format to its MIME type.
func ContentTypeFor(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "application/pdf"
}

/*─────────────────────────────────────────────────────────────────────────────*
| Money                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// zeroDecimalCurrencies are printed without minor units.
var zeroDecimalCurrencies = map[string]bool{"XAF": true}

// FormatAmount prints d in French style for currency: "1 500,00".
func FormatAmount(d decimal.Decimal, currency string) string {
	places := int32(2)
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		places = 0
	}
	s := d.StringFixed(places)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

func dateFR(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02/01/2006")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
