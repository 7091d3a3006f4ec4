// internal/app/features/contactmessages/create.go
package contactmessages

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/leadscore"
	"github.com/aloria/backoffice/internal/app/system/normalize"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	Name               string `json:"name" validate:"required,max=200"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone" validate:"max=40"`
	Country            string `json:"country" validate:"max=100"`
	VisaType           string `json:"visa_type" validate:"max=100"`
	BudgetRange        string `json:"budget_range" validate:"max=50"`
	UrgencyLevel       string `json:"urgency_level" validate:"max=50"`
	Message            string `json:"message" validate:"max=5000"`
	LeadSource         string `json:"lead_source" validate:"max=100"`
	HowDidYouKnow      string `json:"how_did_you_know" validate:"max=200"`
	ReferredByEmployee string `json:"referred_by_employee" validate:"max=200"`
}

// HandleCreate accepts a public contact-form submission.
//
// POST /contact-messages
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := h.Val.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	m := models.ContactMessage{
		Name:               normalize.Name(htmlsanitize.Text(in.Name)),
		Email:              normalize.Email(in.Email),
		Phone:              normalize.Phone(in.Phone),
		Country:            htmlsanitize.Text(in.Country),
		VisaType:           htmlsanitize.Text(in.VisaType),
		BudgetRange:        htmlsanitize.Text(in.BudgetRange),
		UrgencyLevel:       htmlsanitize.Text(in.UrgencyLevel),
		Message:            htmlsanitize.Text(in.Message),
		LeadSource:         htmlsanitize.Text(in.LeadSource),
		HowDidYouKnow:      htmlsanitize.Text(in.HowDidYouKnow),
		ReferredByEmployee: htmlsanitize.Text(in.ReferredByEmployee),
	}
	if m.Name == "" {
		h.fail(w, r, apierr.ValidationFields("name is required", map[string]string{"name": "name is required"}))
		return
	}
	m.ConversionProbability = leadscore.Score(leadscore.Input{
		Phone:         m.Phone,
		Country:       m.Country,
		VisaType:      m.VisaType,
		BudgetRange:   m.BudgetRange,
		UrgencyLevel:  m.UrgencyLevel,
		Message:       m.Message,
		LeadSource:    m.LeadSource,
		HowDidYouKnow: m.HowDidYouKnow,
	})

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "contact-messages:create")
	defer cancel()

	created, err := h.Prospects.Create(ctx, m)
	if err != nil {
		h.fail(w, r, apierr.Internal(err))
		return
	}
	h.Log.Info("prospect received",
		zap.String("prospect_id", created.ID.Hex()),
		zap.Int("conversion_probability", created.ConversionProbability))

	respond.Created(w, created)
}
