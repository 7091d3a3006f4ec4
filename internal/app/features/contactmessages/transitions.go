// internal/app/features/contactmessages/transitions.go
package contactmessages

import (
	"errors"
	"net/http"
	"time"

	"github.com/aloria/backoffice/internal/app/policy/prospectpolicy"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/onboarding"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Assign                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type assignInput struct {
	AssignedTo models.UserID `json:"assigned_to" validate:"required"`
}

// HandleAssign hands a new or assigned prospect to a manager or employee.
//
// PATCH /contact-messages/{id}/assign
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	var in assignInput
	if err := h.Val.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	m, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !prospectpolicy.CanAssign(r, *m) {
		h.fail(w, r, apierr.Forbidden("Not allowed to assign this prospect"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "contact-messages:assign")
	defer cancel()

	assignee, err := h.Users.GetActiveWithRole(ctx, in.AssignedTo, models.RoleManager, models.RoleEmployee)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.fail(w, r, apierr.ValidationFields("Assignee must be an active manager or employee",
			map[string]string{"assigned_to": "must be an active manager or employee"}))
		return
	}
	if err != nil {
		h.fail(w, r, apierr.Internal(err))
		return
	}

	updated, err := h.Prospects.Transition(ctx, m.ID, prospectpolicy.AssignFrom, bson.M{
		"$set": bson.M{"status": models.ProspectAssigned, "assigned_to": assignee.ID},
	})
	if err != nil {
		h.fail(w, r, transitionErr(err))
		return
	}

	h.AuditLog.ProspectAssigned(ctx, r, actor.ID, updated.ID, assignee.ID)
	h.Notifier.Notify(ctx, []models.UserID{assignee.ID}, notify.Message{
		Type:      models.NotifyProspectAssigned,
		Title:     "Nouveau prospect",
		Body:      "Le prospect " + updated.Name + " vous a été attribué.",
		RelatedID: updated.ID.Hex(),
	})
	respond.OK(w, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Refer to consultation                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type referInput struct {
	ConsultantID *models.UserID `json:"consultant_id"`
}

// HandleAssignConsultant records the flat referral payment and sends the
// prospect to consultation, optionally naming the consultant.
//
// PATCH /contact-messages/{id}/assign-consultant
func (h *Handler) HandleAssignConsultant(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	var in referInput
	if err := h.Val.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	m, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !prospectpolicy.CanReferToConsultant(r, *m) {
		h.fail(w, r, apierr.Forbidden("Not allowed to refer this prospect"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "contact-messages:assign-consultant")
	defer cancel()

	set := bson.M{
		"status":             models.ProspectPayment50k,
		"payment_50k_amount": int64(models.ReferralPaymentAmount),
	}
	if in.ConsultantID != nil && !in.ConsultantID.IsZero() {
		if _, err := h.Users.GetActiveWithRole(ctx, *in.ConsultantID, models.RoleConsultant); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				h.fail(w, r, apierr.ValidationFields("Consultant must be an active consultant",
					map[string]string{"consultant_id": "must be an active consultant"}))
				return
			}
			h.fail(w, r, apierr.Internal(err))
			return
		}
		set["assigned_consultant_id"] = *in.ConsultantID
	} else {
		in.ConsultantID = nil
	}

	updated, err := h.Prospects.Transition(ctx, m.ID, prospectpolicy.ReferFrom, bson.M{"$set": set})
	if err != nil {
		h.fail(w, r, transitionErr(err))
		return
	}

	h.AuditLog.ProspectReferred(ctx, r, actor.ID, updated.ID, in.ConsultantID)
	if in.ConsultantID != nil {
		h.Notifier.Notify(ctx, []models.UserID{*in.ConsultantID}, notify.Message{
			Type:      models.NotifyProspectAssigned,
			Title:     "Consultation à mener",
			Body:      "Le prospect " + updated.Name + " attend votre consultation.",
			RelatedID: updated.ID.Hex(),
		})
	}
	respond.OK(w, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Consultant notes                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type noteInput struct {
	Note string `json:"note" validate:"required,max=5000"`
}

// HandleAddNote appends a consultation note and moves the prospect into
// consultation. Notes are never edited or removed.
//
// PATCH /contact-messages/{id}/consultant-notes
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	var in noteInput
	if err := h.Val.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	note := htmlsanitize.Text(in.Note)
	if note == "" {
		h.fail(w, r, apierr.ValidationFields("note is required", map[string]string{"note": "note is required"}))
		return
	}

	m, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !prospectpolicy.CanAddNote(r, *m) {
		h.fail(w, r, apierr.Forbidden("Not allowed to add notes to this prospect"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "contact-messages:consultant-notes")
	defer cancel()

	entry := models.ConsultantNote{
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}
	set := bson.M{"status": models.ProspectInConsultation}
	if actor.Role == models.RoleConsultant && m.AssignedConsultantID == nil {
		set["assigned_consultant_id"] = actor.ID
	}

	updated, err := h.Prospects.Transition(ctx, m.ID, prospectpolicy.AddNoteFrom, bson.M{
		"$set":  set,
		"$push": bson.M{"consultant_notes": entry},
	})
	if err != nil {
		h.fail(w, r, transitionErr(err))
		return
	}
	respond.OK(w, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Convert                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type convertResponse struct {
	Prospect    *models.ContactMessage `json:"prospect"`
	Client      models.ClientView      `json:"client"`
	Case        models.Case            `json:"case"`
	Credentials onboarding.Credentials `json:"credentials"`
	EmailSent   bool                   `json:"email_sent"`
}

// HandleConvert turns the prospect into a client account with its first case.
//
// POST /contact-messages/{id}/convert-to-client
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	m, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !prospectpolicy.CanConvert(r, *m) {
		h.fail(w, r, apierr.Forbidden("Not allowed to convert this prospect"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "contact-messages:convert")
	defer cancel()

	res, converted, err := h.Onboarding.ConvertProspect(ctx, m.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.AuditLog.ProspectConverted(ctx, r, actor.ID, m.ID, res.User.ID, res.Client.ID)
	h.Log.Info("prospect converted",
		zap.String("prospect_id", m.ID.Hex()),
		zap.String("client_id", res.Client.ID.Hex()),
		zap.Bool("email_sent", res.EmailSent))

	respond.Created(w, convertResponse{
		Prospect:    converted,
		Client:      models.NewClientView(res.Client, &res.User, nil),
		Case:        res.Case,
		Credentials: res.Credentials,
		EmailSent:   res.EmailSent,
	})
}
