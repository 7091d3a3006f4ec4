// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// WelcomeEmailData holds data for the account-created email sent at conversion.
type WelcomeEmailData struct {
	SiteName          string
	FullName          string
	Email             string
	TemporaryPassword string
	LoginURL          string
}

// BuildWelcomeEmail creates the credentials email with both HTML and text bodies.
func BuildWelcomeEmail(data WelcomeEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Bonjour %s,\n\n", data.FullName)
	fmt.Fprintf(&text, "Votre espace client %s est prêt.\n\n", data.SiteName)
	fmt.Fprintf(&text, "Identifiant : %s\n", data.Email)
	fmt.Fprintf(&text, "Mot de passe temporaire : %s\n\n", data.TemporaryPassword)
	fmt.Fprintf(&text, "Connectez-vous ici : %s\n", data.LoginURL)
	text.WriteString("Vous devrez choisir un nouveau mot de passe à la première connexion.\n")

	return Email{
		To:       data.Email,
		ToName:   data.FullName,
		Subject:  fmt.Sprintf("Bienvenue chez %s : vos identifiants", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render("welcome", data),
	}
}

// PaymentConfirmedEmailData holds data for the payment-confirmed email.
type PaymentConfirmedEmailData struct {
	SiteName      string
	To            string
	FullName      string
	Amount        string // formatted, e.g. "1 500,00"
	Currency      string
	InvoiceNumber string
	InvoiceURL    string // may be empty when rendering failed
}

// BuildPaymentConfirmedEmail creates the confirmation email.
func BuildPaymentConfirmedEmail(data PaymentConfirmedEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Bonjour %s,\n\n", data.FullName)
	fmt.Fprintf(&text, "Votre paiement de %s %s a été confirmé.\n", data.Amount, data.Currency)
	fmt.Fprintf(&text, "Numéro de facture : %s\n", data.InvoiceNumber)
	if data.InvoiceURL != "" {
		fmt.Fprintf(&text, "Télécharger la facture : %s\n", data.InvoiceURL)
	}
	fmt.Fprintf(&text, "\nMerci de votre confiance,\nL'équipe %s\n", data.SiteName)

	return Email{
		To:       data.To,
		ToName:   data.FullName,
		Subject:  fmt.Sprintf("Paiement confirmé : facture %s", data.InvoiceNumber),
		TextBody: text.String(),
		HTMLBody: render("payment_confirmed", data),
	}
}

// PaymentRejectedEmailData holds data for the payment-rejected email.
type PaymentRejectedEmailData struct {
	SiteName string
	To       string
	FullName string
	Amount   string
	Currency string
	Reason   string
}

// BuildPaymentRejectedEmail creates the rejection email.
func BuildPaymentRejectedEmail(data PaymentRejectedEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Bonjour %s,\n\n", data.FullName)
	fmt.Fprintf(&text, "Votre déclaration de paiement de %s %s n'a pas pu être validée.\n", data.Amount, data.Currency)
	if data.Reason != "" {
		fmt.Fprintf(&text, "Motif : %s\n", data.Reason)
	}
	text.WriteString("\nContactez votre conseiller pour plus d'informations.\n")

	return Email{
		To:       data.To,
		ToName:   data.FullName,
		Subject:  "Paiement non validé",
		TextBody: text.String(),
		HTMLBody: render("payment_rejected", data),
	}
}

// CaseUpdateEmailData holds data for the case-progress email.
type CaseUpdateEmailData struct {
	SiteName    string
	To          string
	FullName    string
	Status      string
	CurrentStep string
	Progress    int
}

// BuildCaseUpdateEmail creates the case-progress email.
func BuildCaseUpdateEmail(data CaseUpdateEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Bonjour %s,\n\n", data.FullName)
	text.WriteString("Votre dossier a été mis à jour.\n")
	fmt.Fprintf(&text, "Statut : %s\n", data.Status)
	if data.CurrentStep != "" {
		fmt.Fprintf(&text, "Étape en cours : %s\n", data.CurrentStep)
	}
	fmt.Fprintf(&text, "Progression : %d%%\n", data.Progress)

	return Email{
		To:       data.To,
		ToName:   data.FullName,
		Subject:  "Mise à jour de votre dossier",
		TextBody: text.String(),
		HTMLBody: render("case_update", data),
	}
}

var htmlTemplates = template.Must(template.New("layout").Parse(layoutHTML + contentHTML))

func render(name string, data any) string {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return ""
	}
	return buf.String()
}

const layoutHTML = `{{define "header"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #1e3a8a;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; font-size: 16px; color: #374151; line-height: 1.5;">
              <p style="margin: 0 0 16px;">Bonjour {{.FullName}},</p>
{{end}}
{{define "footer"}}            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.SiteName}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>{{end}}`

const contentHTML = `
{{define "welcome"}}{{template "header" .}}
              <p style="margin: 0 0 16px;">Votre espace client est prêt.</p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 20px; margin-bottom: 24px;">
                <p style="margin: 0 0 8px;">Identifiant : <strong>{{.Email}}</strong></p>
                <p style="margin: 0;">Mot de passe temporaire : <strong style="font-family: 'Courier New', monospace; letter-spacing: 2px;">{{.TemporaryPassword}}</strong></p>
              </div>
              <p style="margin: 0 0 24px; text-align: center;">
                <a href="{{.LoginURL}}" style="display: inline-block; padding: 14px 32px; background-color: #1e3a8a; color: #ffffff; text-decoration: none; border-radius: 6px;">Se connecter</a>
              </p>
              <p style="margin: 0; font-size: 13px; color: #6b7280;">Vous devrez choisir un nouveau mot de passe à la première connexion.</p>
{{template "footer" .}}{{end}}

{{define "payment_confirmed"}}{{template "header" .}}
              <p style="margin: 0 0 16px;">Votre paiement de <strong>{{.Amount}} {{.Currency}}</strong> a été confirmé.</p>
              <p style="margin: 0 0 24px;">Numéro de facture : <strong>{{.InvoiceNumber}}</strong></p>
              {{if .InvoiceURL}}<p style="margin: 0; text-align: center;">
                <a href="{{.InvoiceURL}}" style="display: inline-block; padding: 14px 32px; background-color: #1e3a8a; color: #ffffff; text-decoration: none; border-radius: 6px;">Télécharger la facture</a>
              </p>{{end}}
{{template "footer" .}}{{end}}

{{define "payment_rejected"}}{{template "header" .}}
              <p style="margin: 0 0 16px;">Votre déclaration de paiement de <strong>{{.Amount}} {{.Currency}}</strong> n'a pas pu être validée.</p>
              {{if .Reason}}<p style="margin: 0 0 16px;">Motif : {{.Reason}}</p>{{end}}
              <p style="margin: 0;">Contactez votre conseiller pour plus d'informations.</p>
{{template "footer" .}}{{end}}

{{define "case_update"}}{{template "header" .}}
              <p style="margin: 0 0 16px;">Votre dossier a été mis à jour.</p>
              <p style="margin: 0 0 8px;">Statut : <strong>{{.Status}}</strong></p>
              {{if .CurrentStep}}<p style="margin: 0 0 8px;">Étape en cours : {{.CurrentStep}}</p>{{end}}
              <div style="background-color: #e5e7eb; border-radius: 4px; height: 8px; margin-top: 16px;">
                <div style="background-color: #1e3a8a; border-radius: 4px; height: 8px; width: {{.Progress}}%;"></div>
              </div>
{{template "footer" .}}{{end}}
`
