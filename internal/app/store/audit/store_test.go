package audit_test

import (
	"testing"
	"time"

	"github.com/aloria/backoffice/internal/app/store/audit"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/aloria/backoffice/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := models.NewUserID()
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
	if events[0].UserID == nil || *events[0].UserID != userID {
		t.Errorf("UserID: got %v, want %v", events[0].UserID, userID)
	}
}

func TestStore_GetByUser_FiltersByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user1 := models.NewUserID()
	user2 := models.NewUserID()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &user1, Success: true}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &user2, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, user1, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 events for user1, got %d", len(events))
	}
}

func TestStore_GetByTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := models.NewUserID()
	paymentID := models.NewPaymentID().Hex()

	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventPaymentCodeIssued, ActorID: &actor, TargetID: paymentID, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventPaymentConfirmed, ActorID: &actor, TargetID: paymentID, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventPaymentConfirmed, ActorID: &actor, TargetID: models.NewPaymentID().Hex(), Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByTarget(ctx, paymentID, 10)
	if err != nil {
		t.Fatalf("GetByTarget failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	count, err := store.CountByFilter(ctx, audit.QueryFilter{ActorID: &actor, EventType: audit.EventPaymentConfirmed})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 confirmations by actor, got %d", count)
	}
}

func TestStore_Query_TimeRangeAndOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventLogout,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	start := base.Add(30 * time.Second)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after start, got %d", len(events))
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("expected newest event first")
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	since := time.Now().UTC().Add(-time.Minute)

	for _, e := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, Success: false},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserNotFound, Success: false},
		{Category: audit.CategoryAuth, EventType: audit.EventSuperAdminSecretRejected, Success: false},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetFailedLogins(ctx, since, 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 failed logins, got %d", len(events))
	}
}
