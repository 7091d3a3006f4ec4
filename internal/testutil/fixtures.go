package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/app/system/normalize"
	"github.com/aloria/backoffice/internal/app/system/workflows"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FixturePassword is the password of every user created by Fixtures.
const FixturePassword = "FixturePass2024"

var (
	fixtureHashOnce sync.Once
	fixtureHash     string
)

func fixturePasswordHash(t *testing.T) string {
	fixtureHashOnce.Do(func() {
		h, err := authutil.HashPassword(FixturePassword)
		if err != nil {
			t.Fatalf("hash fixture password: %v", err)
		}
		fixtureHash = h
	})
	return fixtureHash
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active user with FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           models.NewUserID(),
		Email:        normalize.Email(email),
		PasswordHash: fixturePasswordHash(f.t),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Role:         models.NormalizeRole(role),
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDisabledUser creates a user that may not sign in.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, role)
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"status": models.UserStatusDisabled}}); err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = models.UserStatusDisabled
	return u
}

// CreateClient creates a client profile owned by user, optionally assigned.
func (f *Fixtures) CreateClient(ctx context.Context, user models.User, employee *models.User) models.Client {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Client{
		ID:            models.NewClientProfileID(),
		UserID:        user.ID,
		Country:       "France",
		VisaType:      "Étudiant",
		CurrentStatus: models.CaseStatusNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if employee != nil {
		id := employee.ID
		c.AssignedEmployeeID = &id
	}
	if _, err := f.db.Collection("clients").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test client: %v", err)
	}
	return c
}

// CreateClientWithUser creates a CLIENT user and its profile.
func (f *Fixtures) CreateClientWithUser(ctx context.Context, fullName, email string, employee *models.User) (models.User, models.Client) {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, models.RoleClient)
	return u, f.CreateClient(ctx, u, employee)
}

// CreateCase creates a case for client with the workflow of its country and visa type.
func (f *Fixtures) CreateCase(ctx context.Context, client models.Client) models.Case {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Case{
		ID:              models.NewCaseID(),
		ClientID:        client.UserID,
		ClientProfileID: client.ID,
		Country:         client.Country,
		VisaType:        client.VisaType,
		WorkflowSteps:   workflows.Steps(client.Country, client.VisaType),
		Status:          models.CaseStatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("cases").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test case: %v", err)
	}
	return c
}

// CreatePendingPayment creates a pending payment declared by the client.
func (f *Fixtures) CreatePendingPayment(ctx context.Context, client models.Client, user models.User, amount string) models.Payment {
	f.t.Helper()

	d, err := decimal.NewFromString(amount)
	if err != nil {
		f.t.Fatalf("bad fixture amount %q: %v", amount, err)
	}
	stored, err := models.DecimalToBSON(d)
	if err != nil {
		f.t.Fatalf("bad fixture amount %q: %v", amount, err)
	}
	p := models.Payment{
		ID:            models.NewPaymentID(),
		ClientID:      client.ID,
		ClientUserID:  user.ID,
		ClientName:    user.FullName,
		Amount:        stored,
		Currency:      "EUR",
		Description:   "Frais de dossier",
		PaymentMethod: "virement",
		Status:        models.PaymentPending,
		DeclaredAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("payments").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test payment: %v", err)
	}
	return p
}

// CreateProspect creates a prospect in the given status, optionally assigned.
func (f *Fixtures) CreateProspect(ctx context.Context, name, email, status string, assignedTo *models.UserID) models.ContactMessage {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.ContactMessage{
		ID:              models.NewProspectID(),
		Name:            name,
		Email:           normalize.Email(email),
		Country:         "Canada",
		VisaType:        "Travail",
		Message:         "Je souhaite travailler au Canada.",
		Status:          status,
		AssignedTo:      assignedTo,
		ConsultantNotes: []models.ConsultantNote{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("contact_messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test prospect: %v", err)
	}
	return m
}
