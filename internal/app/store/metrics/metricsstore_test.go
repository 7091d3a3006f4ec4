package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/aloria/backoffice/internal/app/store/metrics"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/aloria/backoffice/internal/testutil"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db, metricsstore.Scope{All: true})

	if counts.Clients != 0 {
		t.Errorf("Clients: got %d, want 0", counts.Clients)
	}
	if len(counts.Prospects) != 0 {
		t.Errorf("Prospects: got %v, want empty", counts.Prospects)
	}
	if counts.PendingPayments != 0 || counts.ConfirmedPayments != 0 {
		t.Errorf("Payments: got %d/%d, want 0/0", counts.PendingPayments, counts.ConfirmedPayments)
	}
}

func TestFetchDashboardCounts_Scopes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	emp := fixtures.CreateUser(ctx, "Emp", "emp@example.com", models.RoleEmployee)
	other := fixtures.CreateUser(ctx, "Other", "other@example.com", models.RoleEmployee)

	// prospects: 2 for emp, 1 unassigned
	fixtures.CreateProspect(ctx, "P1", "p1@example.com", models.ProspectAssigned, &emp.ID)
	fixtures.CreateProspect(ctx, "P2", "p2@example.com", models.ProspectConverted, &emp.ID)
	fixtures.CreateProspect(ctx, "P3", "p3@example.com", models.ProspectNew, nil)

	// clients: 1 for emp, 1 for other
	u1, c1 := fixtures.CreateClientWithUser(ctx, "C1", "c1@example.com", &emp)
	u2, c2 := fixtures.CreateClientWithUser(ctx, "C2", "c2@example.com", &other)
	fixtures.CreateCase(ctx, c1)
	fixtures.CreateCase(ctx, c2)
	fixtures.CreatePendingPayment(ctx, c1, u1, "100.00")
	fixtures.CreatePendingPayment(ctx, c2, u2, "200.00")

	if _, err := db.Collection("notifications").InsertOne(ctx, models.Notification{
		ID: models.NewNotificationID(), RecipientID: emp.ID, Type: "info",
		Title: "t", Message: "m", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("insert notification: %v", err)
	}

	all := metricsstore.FetchDashboardCounts(ctx, db, metricsstore.Scope{All: true})
	if all.Clients != 2 {
		t.Errorf("all.Clients: got %d, want 2", all.Clients)
	}
	if all.Prospects[models.ProspectNew] != 1 || all.Prospects[models.ProspectAssigned] != 1 {
		t.Errorf("all.Prospects: got %v", all.Prospects)
	}
	if all.Cases[models.CaseStatusNew] != 2 {
		t.Errorf("all.Cases: got %v", all.Cases)
	}
	if all.PendingPayments != 2 {
		t.Errorf("all.PendingPayments: got %d, want 2", all.PendingPayments)
	}

	mine := metricsstore.FetchDashboardCounts(ctx, db, metricsstore.Scope{EmployeeID: &emp.ID, ViewerID: emp.ID})
	if mine.Clients != 1 {
		t.Errorf("employee Clients: got %d, want 1", mine.Clients)
	}
	if mine.Prospects[models.ProspectNew] != 0 || mine.Prospects[models.ProspectConverted] != 1 {
		t.Errorf("employee Prospects: got %v", mine.Prospects)
	}
	if mine.Cases[models.CaseStatusNew] != 1 {
		t.Errorf("employee Cases: got %v", mine.Cases)
	}
	if mine.PendingPayments != 1 {
		t.Errorf("employee PendingPayments: got %d, want 1", mine.PendingPayments)
	}
	if mine.UnreadAlerts != 1 {
		t.Errorf("employee UnreadAlerts: got %d, want 1", mine.UnreadAlerts)
	}

	con := fixtures.CreateUser(ctx, "Con", "con@example.com", models.RoleConsultant)
	cons := metricsstore.FetchDashboardCounts(ctx, db, metricsstore.Scope{ConsultantID: &con.ID, AllClients: true, ViewerID: con.ID})
	if cons.Clients != 2 {
		t.Errorf("consultant Clients: got %d, want 2", cons.Clients)
	}
	if len(cons.Cases) != 0 || cons.PendingPayments != 0 {
		t.Errorf("consultant should not see cases or payments: %+v", cons)
	}
	if len(cons.Prospects) != 0 {
		t.Errorf("consultant Prospects: got %v", cons.Prospects)
	}
}
