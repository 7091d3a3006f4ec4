// internal/app/features/clients/create.go
package clients

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/onboarding"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	FullName           string         `json:"full_name" validate:"required,max=200"`
	Email              string         `json:"email" validate:"required,email"`
	Phone              string         `json:"phone" validate:"max=40"`
	Country            string         `json:"country" validate:"required,max=100"`
	VisaType           string         `json:"visa_type" validate:"required,max=100"`
	AssignedEmployeeID *models.UserID `json:"assigned_employee_id"`
}

type createResponse struct {
	Client      models.ClientView      `json:"client"`
	Case        models.Case            `json:"case"`
	Credentials onboarding.Credentials `json:"credentials"`
	EmailSent   bool                   `json:"email_sent"`
}

// HandleCreate creates a client account, profile and first case directly.
// Without an explicit assignee, an employee creating the client keeps it.
//
// POST /clients
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	var in createInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	nc := onboarding.NewClient{
		FullName: htmlsanitize.Text(in.FullName),
		Email:    in.Email,
		Phone:    in.Phone,
		Country:  htmlsanitize.Text(in.Country),
		VisaType: htmlsanitize.Text(in.VisaType),
	}
	if in.AssignedEmployeeID != nil && !in.AssignedEmployeeID.IsZero() {
		nc.AssignedEmployeeID = in.AssignedEmployeeID
	}
	if actor.Role == models.RoleEmployee {
		id := actor.ID
		nc.PreferredEmployeeID = &id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "clients:create")
	defer cancel()

	res, err := h.Onboarding.CreateClient(ctx, nc)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.AuditLog.ClientCreated(ctx, r, actor.ID, res.User.ID, res.Client.ID)
	h.Log.Info("client created",
		zap.String("client_id", res.Client.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.Bool("email_sent", res.EmailSent))

	var employee *models.User
	if res.Client.AssignedEmployeeID != nil {
		if e, err := h.Users.GetByID(ctx, *res.Client.AssignedEmployeeID); err == nil {
			employee = e
		}
	}
	respond.Created(w, createResponse{
		Client:      models.NewClientView(res.Client, &res.User, employee),
		Case:        res.Case,
		Credentials: res.Credentials,
		EmailSent:   res.EmailSent,
	})
}
