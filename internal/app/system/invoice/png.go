// internal/app/system/invoice/png.go
package invoice

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"unicode"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Card dimensions.
const (
	cardWidth  = 1200
	cardHeight = 800
)

// PNGRenderer draws a fixed-size card-style invoice.
type PNGRenderer struct{}

func (PNGRenderer) Format() string { return FormatPNG }

var (
	cardBG    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	cardBrand = color.RGBA{R: 30, G: 58, B: 138, A: 255}
	cardText  = color.RGBA{R: 31, G: 41, B: 55, A: 255}
	cardMuted = color.RGBA{R: 107, G: 114, B: 128, A: 255}
	cardRule  = color.RGBA{R: 229, G: 231, B: 235, A: 255}
	cardPanel = color.RGBA{R: 243, G: 244, B: 246, A: 255}
)

func (PNGRenderer) Render(d Data) (Artifact, error) {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(cardBG), image.Point{}, draw.Src)

	// Header band.
	fill(img, image.Rect(0, 0, cardWidth, 140), cardBrand)
	text(img, 60, 45, d.Issuer.Name, color.White, 4)
	text(img, 880, 55, "FACTURE", color.White, 3)

	text(img, 60, 180, "Numero : "+d.InvoiceNumber, cardText, 3)
	text(img, 60, 230, "Confirmee le "+dateFR(d.ConfirmedAt), cardMuted, 2)

	// Bill-to panel.
	fill(img, image.Rect(60, 280, 1140, 420), cardPanel)
	text(img, 90, 300, "Facture a", cardBrand, 2)
	text(img, 90, 340, orDash(d.ClientName), cardText, 3)
	if d.ClientEmail != "" {
		text(img, 90, 385, d.ClientEmail, cardMuted, 2)
	}

	// Line item.
	text(img, 60, 460, orDash(d.Description), cardText, 2)
	text(img, 60, 500, "Methode : "+orDash(d.PaymentMethod), cardMuted, 2)
	fill(img, image.Rect(60, 550, 1140, 552), cardRule)

	// Total.
	total := fmt.Sprintf("%s %s", FormatAmount(d.Amount, d.Currency), d.Currency)
	text(img, 60, 590, "Total paye", cardMuted, 3)
	w := measure(total) * 5
	text(img, cardWidth-60-w, 575, total, cardBrand, 5)

	// Footer.
	footer := "Merci de votre confiance. " + d.Issuer.Name
	if d.Issuer.Website != "" {
		footer += " - " + d.Issuer.Website
	}
	text(img, 60, 740, footer, cardMuted, 2)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Artifact{}, fmt.Errorf("invoice: png: %w", err)
	}
	return Artifact{
		ContentType: ContentTypeFor(FormatPNG),
		Filename:    d.InvoiceNumber + ".png",
		Bytes:       buf.Bytes(),
	}, nil
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// text draws s with its top-left corner at (x, y), scaling the 7x13 bitmap
// face by scale.
func text(dst *image.RGBA, x, y int, s string, c color.Color, scale int) {
	s = asciiFold(s)
	if s == "" {
		return
	}
	face := basicfont.Face7x13
	w := measure(s)
	h := face.Height

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	dr := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	dr.DrawString(s)

	target := image.Rect(x, y, x+w*scale, y+h*scale)
	if !target.Overlaps(dst.Bounds()) {
		return
	}
	xdraw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

func measure(s string) int {
	return font.MeasureString(basicfont.Face7x13, asciiFold(s)).Ceil()
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFold removes accents and replaces what the bitmap face cannot draw.
func asciiFold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '€':
			return 'E'
		case r < 0x20 || r > 0x7e:
			return '?'
		default:
			return r
		}
	}, folded)
}
