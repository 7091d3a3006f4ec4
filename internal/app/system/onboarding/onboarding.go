// internal/app/system/onboarding/onboarding.go
//
// Package onboarding creates client accounts: the user, its profile and its
// first case, either directly or by converting a prospect.
package onboarding

import (
	"context"
	"errors"
	"fmt"

	casestore "github.com/aloria/backoffice/internal/app/store/cases"
	clientstore "github.com/aloria/backoffice/internal/app/store/clients"
	contactmessagestore "github.com/aloria/backoffice/internal/app/store/contactmessages"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/app/system/mailer"
	"github.com/aloria/backoffice/internal/app/system/normalize"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/txn"
	"github.com/aloria/backoffice/internal/app/system/workflows"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service creates clients. All fields are required except Mailer and Notifier,
// which degrade to no-ops.
type Service struct {
	Txn       *txn.Runner
	Users     *userstore.Store
	Clients   *clientstore.Store
	Cases     *casestore.Store
	Prospects *contactmessagestore.Store
	Assigner  EmployeeAssigner
	Notifier  *notify.Notifier
	Mailer    *mailer.Mailer
	SiteName  string
	LoginURL  string
	Log       *zap.Logger
}

// New wires a Service over db with least-loaded employee assignment.
func New(db *mongo.Database, runner *txn.Runner, notifier *notify.Notifier, m *mailer.Mailer, siteName, loginURL string, log *zap.Logger) *Service {
	users := userstore.New(db)
	clients := clientstore.New(db)
	return &Service{
		Txn:       runner,
		Users:     users,
		Clients:   clients,
		Cases:     casestore.New(db),
		Prospects: contactmessagestore.New(db),
		Assigner:  LeastLoaded{Employees: users, Load: clients},
		Notifier:  notifier,
		Mailer:    m,
		SiteName:  siteName,
		LoginURL:  loginURL,
		Log:       log,
	}
}

// NewClient is the input of CreateClient.
type NewClient struct {
	FullName string
	Email    string
	Phone    string
	Country  string
	VisaType string
	// AssignedEmployeeID is an explicit choice. It must name an active employee.
	AssignedEmployeeID *models.UserID
	// PreferredEmployeeID is used when it names an active employee and no
	// explicit choice was made. Conversion passes the prospect's assignee.
	PreferredEmployeeID *models.UserID
}

// Credentials are returned once, at creation.
type Credentials struct {
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
	LoginURL          string `json:"login_url"`
}

// Result is the outcome of a successful creation.
type Result struct {
	User        models.User
	Client      models.Client
	Case        models.Case
	Credentials Credentials
	EmailSent   bool
}

// ConvertibleFrom lists the prospect states a conversion may start from.
var ConvertibleFrom = []string{
	models.ProspectAssigned,
	models.ProspectPayment50k,
	models.ProspectInConsultation,
}

// CreateClient creates the user, profile and case as one unit, then assigns,
// notifies and emails on a best-effort basis.
func (s *Service) CreateClient(ctx context.Context, in NewClient) (*Result, error) {
	return s.create(ctx, in, nil)
}

// ConvertProspect turns a prospect into a client. The prospect is marked
// converted in the same unit of work, so a prospect converts at most once.
func (s *Service) ConvertProspect(ctx context.Context, id models.ProspectID) (*Result, *models.ContactMessage, error) {
	p, err := s.Prospects.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, apierr.NotFound("Prospect not found")
	}
	if err != nil {
		return nil, nil, apierr.Internal(err)
	}
	if p.Status == models.ProspectNew {
		return nil, nil, apierr.Conflict("Prospect must be assigned before conversion")
	}
	if p.Status == models.ProspectConverted {
		return nil, nil, apierr.Conflict("Prospect is already a client")
	}

	var converted *models.ContactMessage
	res, err := s.create(ctx, NewClient{
		FullName:            p.Name,
		Email:               p.Email,
		Phone:               p.Phone,
		Country:             p.Country,
		VisaType:            p.VisaType,
		PreferredEmployeeID: p.AssignedTo,
	}, func(tx *txn.Tx, client models.Client) error {
		updated, err := s.Prospects.Transition(tx.Context(), id, ConvertibleFrom, bson.M{
			"$set": bson.M{"status": models.ProspectConverted, "converted_client_id": client.ID},
		})
		if errors.Is(err, contactmessagestore.ErrStateConflict) {
			return apierr.Conflict("Prospect is not in a state that allows conversion")
		}
		if err != nil {
			return err
		}
		converted = updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return res, converted, nil
}

func (s *Service) create(ctx context.Context, in NewClient, also func(tx *txn.Tx, client models.Client) error) (*Result, error) {
	email := normalize.Email(in.Email)
	if email == "" || normalize.Name(in.FullName) == "" {
		return nil, apierr.Validation("full_name and email are required")
	}
	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if exists {
		return nil, apierr.Validation("Email already registered")
	}

	employeeID, err := s.chooseEmployee(ctx, in)
	if err != nil {
		return nil, err
	}

	tempPassword, err := authutil.GenerateTempPassword()
	if err != nil {
		return nil, apierr.Internal(err)
	}
	hash, err := authutil.HashPassword(tempPassword)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	var res Result
	err = s.Txn.Run(ctx, func(tx *txn.Tx) error {
		tctx := tx.Context()

		user, err := s.Users.Create(tctx, models.User{
			Email:              email,
			FullName:           in.FullName,
			Phone:              in.Phone,
			Role:               models.RoleClient,
			PasswordHash:       hash,
			MustChangePassword: true,
		})
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return apierr.Validation("Email already registered")
		}
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		tx.OnRollback(func(ctx context.Context) error { return s.Users.Delete(ctx, user.ID) })

		client, err := s.Clients.Create(tctx, models.Client{
			UserID:             user.ID,
			Country:            in.Country,
			VisaType:           in.VisaType,
			AssignedEmployeeID: employeeID,
			CurrentStatus:      models.CaseStatusNew,
		})
		if err != nil {
			return fmt.Errorf("create client profile: %w", err)
		}
		tx.OnRollback(func(ctx context.Context) error { return s.Clients.Delete(ctx, client.ID) })

		cs, err := s.Cases.Create(tctx, models.Case{
			ClientID:        user.ID,
			ClientProfileID: client.ID,
			Country:         in.Country,
			VisaType:        in.VisaType,
			WorkflowSteps:   workflows.Steps(in.Country, in.VisaType),
			Status:          models.CaseStatusNew,
		})
		if err != nil {
			return fmt.Errorf("create case: %w", err)
		}
		tx.OnRollback(func(ctx context.Context) error { return s.Cases.Delete(ctx, cs.ID) })

		if also != nil {
			if err := also(tx, client); err != nil {
				return err
			}
		}

		res = Result{User: user, Client: client, Case: cs}
		return nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apierr.Internal(err)
	}

	res.Credentials = Credentials{Email: res.User.Email, TemporaryPassword: tempPassword, LoginURL: s.LoginURL}
	s.afterCreate(ctx, &res)
	return &res, nil
}

// chooseEmployee resolves the assignee. An invalid explicit choice is a
// validation error; lookup failures of the fallbacks leave the client unassigned.
func (s *Service) chooseEmployee(ctx context.Context, in NewClient) (*models.UserID, error) {
	if in.AssignedEmployeeID != nil {
		if _, err := s.Users.GetActiveWithRole(ctx, *in.AssignedEmployeeID, models.RoleEmployee); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, apierr.Validation("assigned_employee_id must be an active employee")
			}
			return nil, apierr.Internal(err)
		}
		id := *in.AssignedEmployeeID
		return &id, nil
	}

	if in.PreferredEmployeeID != nil {
		if _, err := s.Users.GetActiveWithRole(ctx, *in.PreferredEmployeeID, models.RoleEmployee); err == nil {
			id := *in.PreferredEmployeeID
			return &id, nil
		}
	}

	if s.Assigner == nil {
		return nil, nil
	}
	id, err := s.Assigner.Pick(ctx)
	if err != nil {
		s.Log.Warn("employee auto-assignment failed; client left unassigned", zap.Error(err))
		return nil, nil
	}
	return id, nil
}

// afterCreate runs the post-commit side effects. Nothing here can fail the creation.
func (s *Service) afterCreate(ctx context.Context, res *Result) {
	clientRef := res.Client.ID.Hex()

	s.Notifier.Notify(ctx, []models.UserID{res.User.ID}, notify.Message{
		Type:      models.NotifyCaseCreated,
		Title:     "Votre dossier a été créé",
		Body:      fmt.Sprintf("Votre dossier %s / %s est ouvert.", res.Case.Country, res.Case.VisaType),
		RelatedID: res.Case.ID.Hex(),
	})
	if res.Client.AssignedEmployeeID != nil {
		s.Notifier.Notify(ctx, []models.UserID{*res.Client.AssignedEmployeeID}, notify.Message{
			Type:      models.NotifyClientAssigned,
			Title:     "Nouveau client assigné",
			Body:      fmt.Sprintf("%s vous a été assigné.", res.User.FullName),
			RelatedID: clientRef,
		})
	}
	managers, err := s.Users.ActiveIDsByRole(ctx, models.RoleManager)
	if err != nil {
		s.Log.Warn("could not list managers for notification", zap.Error(err))
	}
	s.Notifier.Notify(ctx, managers, notify.Message{
		Type:      models.NotifyNewClient,
		Title:     "Nouveau client",
		Body:      fmt.Sprintf("%s a rejoint l'agence.", res.User.FullName),
		RelatedID: clientRef,
	})

	res.EmailSent = s.Mailer.TrySend(ctx, mailer.BuildWelcomeEmail(mailer.WelcomeEmailData{
		SiteName:          s.SiteName,
		FullName:          res.User.FullName,
		Email:             res.User.Email,
		TemporaryPassword: res.Credentials.TemporaryPassword,
		LoginURL:          s.LoginURL,
	}))
	if !res.EmailSent {
		s.Log.Info("welcome email not sent", zap.String("client_id", clientRef))
	}
}
