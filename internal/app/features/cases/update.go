// internal/app/features/cases/update.go
package cases

import (
	"context"
	"net/http"

	"github.com/aloria/backoffice/internal/app/policy/casepolicy"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/mailer"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

// HandleUpdate advances a case, mirrors its progress onto the client
// profile and tells the client.
//
// PATCH /cases/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	var ch progressChange
	if err := h.Val.Decode(r, &ch); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if ch.Notes != nil {
		clean := htmlsanitize.Text(*ch.Notes)
		ch.Notes = &clean
	}

	cs, client, err := h.load(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !casepolicy.CanUpdateCase(r, *cs, client) {
		respond.Error(w, r, h.Log, apierr.Forbidden("Not allowed to update this case"))
		return
	}

	p, err := apply(*cs, ch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "cases:update")
	defer cancel()

	updated, err := h.Cases.UpdateProgress(ctx, cs.ID, p)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	progress := updated.Progress()
	if client != nil {
		if err := h.Clients.UpdateProgress(ctx, client.ID, updated.CurrentStepIndex, updated.Status, progress); err != nil {
			h.Log.Warn("client progress not mirrored",
				zap.String("case_id", updated.ID.Hex()),
				zap.String("client_id", client.ID.Hex()),
				zap.Error(err))
		}
	}

	h.AuditLog.CaseUpdated(ctx, r, actor.ID, *updated)
	h.tellClient(ctx, *updated, progress)

	respond.OK(w, updated)
}

// tellClient notifies and emails the case owner. Failures are logged only.
func (h *Handler) tellClient(ctx context.Context, cs models.Case, progress int) {
	h.Notifier.Notify(ctx, []models.UserID{cs.ClientID}, notify.Message{
		Type:      models.NotifyCaseUpdate,
		Title:     "Dossier mis à jour",
		Body:      "Votre dossier a été mis à jour.",
		RelatedID: cs.ID.Hex(),
	})

	if h.Mailer == nil {
		return
	}
	owner, err := h.Users.GetByID(ctx, cs.ClientID)
	if err != nil {
		h.Log.Warn("case update email skipped",
			zap.String("case_id", cs.ID.Hex()),
			zap.Error(err))
		return
	}
	h.Mailer.TrySend(ctx, mailer.BuildCaseUpdateEmail(mailer.CaseUpdateEmailData{
		SiteName:    h.SiteName,
		To:          owner.Email,
		FullName:    owner.FullName,
		Status:      cs.Status,
		CurrentStep: cs.CurrentStepTitle(),
		Progress:    progress,
	}))
}
