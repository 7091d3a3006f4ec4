package users_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aloria/backoffice/internal/app/features/users"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/aloria/backoffice/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestHandleCreate_RoleRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := chi.NewRouter()
	r.Mount("/users", users.Routes(users.NewHandler(db, nil, zap.NewNop())))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name  string
		actor testutil.TestUser
		email string
		role  string
		want  int
	}{
		{"superadmin creates manager", testutil.SuperAdminUser(), "m@example.com", "manager", http.StatusCreated},
		{"manager creates employee", testutil.ManagerUser(), "e@example.com", "EMPLOYEE", http.StatusCreated},
		{"manager creates consultant", testutil.ManagerUser(), "c@example.com", "consultant", http.StatusCreated},
		{"manager cannot create manager", testutil.ManagerUser(), "m2@example.com", "manager", http.StatusForbidden},
		{"nobody creates superadmin", testutil.SuperAdminUser(), "s@example.com", "superadmin", http.StatusForbidden},
		{"clients are created elsewhere", testutil.SuperAdminUser(), "cl@example.com", "client", http.StatusForbidden},
		{"unknown role", testutil.SuperAdminUser(), "x@example.com", "admin", http.StatusBadRequest},
		{"duplicate email", testutil.SuperAdminUser(), "E@example.com", "employee", http.StatusBadRequest},
		{"employee cannot create", testutil.TestUser{ID: models.NewUserID(), Role: models.RoleEmployee}, "z@example.com", "consultant", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]string{"full_name": "Staff Member", "email": tt.email, "role": tt.role}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/users", body), tt.actor))
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	stored, err := userstore.New(db).GetByEmail(ctx, "e@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if !stored.MustChangePassword || stored.Role != models.RoleEmployee {
		t.Errorf("stored user: %+v", stored)
	}
}

func TestHandleCreate_ReturnsWorkingTemporaryPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := chi.NewRouter()
	r.Mount("/users", users.Routes(users.NewHandler(db, nil, zap.NewNop())))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/users",
		map[string]string{"full_name": "Nadia", "email": "nadia@example.com", "role": "employee"}), testutil.SuperAdminUser()))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var got struct {
		User              models.User `json:"user"`
		TemporaryPassword string      `json:"temporary_password"`
	}
	testutil.DecodeJSON(t, rec, &got)

	stored, err := userstore.New(db).GetByID(ctx, got.User.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !authutil.CheckPassword(stored.PasswordHash, got.TemporaryPassword) {
		t.Error("temporary password does not match stored hash")
	}
}

func TestServeList_FiltersByRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	r := chi.NewRouter()
	r.Mount("/users", users.Routes(users.NewHandler(db, nil, zap.NewNop())))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Emp A", "a@example.com", models.RoleEmployee)
	fixtures.CreateUser(ctx, "Emp B", "b@example.com", models.RoleEmployee)
	fixtures.CreateUser(ctx, "Con", "c@example.com", models.RoleConsultant)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/users?role=employee", nil), testutil.ManagerUser()))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var list []models.User
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 2 {
		t.Errorf("got %d employees, want 2", len(list))
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/users?role=pilot", nil), testutil.ManagerUser()))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}
