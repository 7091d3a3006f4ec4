// internal/app/system/invoice/pdf.go
package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer draws an A4 document-style invoice.
type PDFRenderer struct{}

func (PDFRenderer) Format() string { return FormatPDF }

var (
	brandR, brandG, brandB = 30, 58, 138
	mutedR, mutedG, mutedB = 107, 114, 128
)

func (PDFRenderer) Render(d Data) (Artifact, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(d.RenderedAt)
	pdf.SetModificationDate(d.RenderedAt)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Facture "+d.InvoiceNumber), false)
	pdf.SetAuthor(tr(d.Issuer.Name), false)
	pdf.AddPage()

	// Header band.
	pdf.SetFillColor(brandR, brandG, brandB)
	pdf.Rect(0, 0, 210, 32, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(20, 10)
	pdf.CellFormat(100, 12, tr(d.Issuer.Name), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(70, 12, "FACTURE", "", 1, "R", false, 0, "")

	// Issuer and invoice meta.
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(20, 42)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{d.Issuer.Address, d.Issuer.Email, d.Issuer.Website} {
		if line == "" {
			continue
		}
		pdf.CellFormat(95, 5, tr(line), "", 2, "L", false, 0, "")
	}

	pdf.SetXY(115, 42)
	meta := [][2]string{
		{"Numéro", d.InvoiceNumber},
		{"Date de confirmation", dateFR(d.ConfirmedAt)},
		{"Date de déclaration", dateFR(d.DeclaredAt)},
	}
	for _, kv := range meta {
		pdf.SetX(115)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 5, tr(kv[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(35, 5, tr(kv[1]), "", 1, "R", false, 0, "")
	}

	// Bill-to.
	pdf.SetXY(20, 72)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(brandR, brandG, brandB)
	pdf.CellFormat(0, 6, tr("Facturé à"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(orDash(d.ClientName)), "", 1, "L", false, 0, "")
	if d.ClientEmail != "" {
		pdf.CellFormat(0, 5, tr(d.ClientEmail), "", 1, "L", false, 0, "")
	}

	// Line items.
	pdf.Ln(8)
	pdf.SetFillColor(243, 244, 246)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(110, 8, "Description", "B", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, tr("Méthode"), "B", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Montant", "B", 1, "R", true, 0, "")

	amount := fmt.Sprintf("%s %s", FormatAmount(d.Amount, d.Currency), d.Currency)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(110, 8, tr(orDash(d.Description)), "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, tr(orDash(d.PaymentMethod)), "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, tr(amount), "", 1, "R", false, 0, "")

	// Totals.
	pdf.Ln(4)
	pdf.SetDrawColor(229, 231, 235)
	y := pdf.GetY()
	pdf.Line(120, y, 190, y)
	pdf.Ln(2)
	pdf.SetX(120)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(35, 8, "Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, tr(amount), "", 1, "R", false, 0, "")
	pdf.SetX(120)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(mutedR, mutedG, mutedB)
	pdf.CellFormat(70, 5, tr("Payé"), "", 1, "R", false, 0, "")

	// Footer.
	pdf.SetY(-35)
	pdf.SetFont("Helvetica", "I", 8)
	if d.ConfirmedBy != "" {
		pdf.CellFormat(0, 4, tr("Paiement confirmé par "+d.ConfirmedBy), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 4, tr("Merci de votre confiance. "+d.Issuer.Name), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Artifact{}, fmt.Errorf("invoice: pdf: %w", err)
	}
	return Artifact{
		ContentType: ContentTypeFor(FormatPDF),
		Filename:    d.InvoiceNumber + ".pdf",
		Bytes:       buf.Bytes(),
	}, nil
}
