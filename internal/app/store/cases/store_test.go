package casestore_test

import (
	"errors"
	"testing"

	casestore "github.com/aloria/backoffice/internal/app/store/cases"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/aloria/backoffice/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, c := fixtures.CreateClientWithUser(ctx, "C", "c@example.com", nil)
	created, err := store.Create(ctx, models.Case{
		ClientID:        u.ID,
		ClientProfileID: c.ID,
		Country:         "France",
		VisaType:        "Étudiant",
		WorkflowSteps:   []models.WorkflowStep{{Title: "Campus France", Duration: "2 semaines"}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.CaseStatusNew {
		t.Errorf("Status: got %q", created.Status)
	}

	got, err := store.LatestForClient(ctx, u.ID)
	if err != nil {
		t.Fatalf("LatestForClient failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("LatestForClient: got %v, want %v", got.ID, created.ID)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, created.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments after delete, got %v", err)
	}
}

func TestStore_List_StableOrderAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1, c1 := fixtures.CreateClientWithUser(ctx, "C1", "c1@example.com", nil)
	_, c2 := fixtures.CreateClientWithUser(ctx, "C2", "c2@example.com", nil)
	fixtures.CreateCase(ctx, c1)
	fixtures.CreateCase(ctx, c2)
	fixtures.CreateCase(ctx, c1)

	first, err := store.List(ctx, casestore.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(first))
	}
	second, _ := store.List(ctx, casestore.Filter{})
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d between identical calls", i)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].CreatedAt.After(first[i-1].CreatedAt) {
			t.Errorf("expected newest first at %d", i)
		}
	}

	mine, _ := store.List(ctx, casestore.Filter{ClientUserIDs: []models.UserID{u1.ID}})
	if len(mine) != 2 {
		t.Errorf("expected 2 cases for u1, got %d", len(mine))
	}

	none, _ := store.List(ctx, casestore.Filter{ClientUserIDs: []models.UserID{}})
	if len(none) != 0 {
		t.Errorf("expected empty result for empty id set, got %d", len(none))
	}
}

func TestStore_UpdateProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := casestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, c := fixtures.CreateClientWithUser(ctx, "C", "c@example.com", nil)
	cs := fixtures.CreateCase(ctx, c)

	steps := cs.WorkflowSteps
	steps[0].Completed = true
	updated, err := store.UpdateProgress(ctx, cs.ID, casestore.Progress{
		Steps:            steps,
		CurrentStepIndex: 1,
		Status:           models.CaseStatusInProcess,
		Notes:            "Dossier reçu",
	})
	if err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if updated.CurrentStepIndex != 1 || updated.Status != models.CaseStatusInProcess || updated.Notes != "Dossier reçu" {
		t.Errorf("unexpected case: %+v", updated)
	}
	if !updated.WorkflowSteps[0].Completed {
		t.Error("expected first step completed")
	}

	if _, err := store.UpdateProgress(ctx, models.NewCaseID(), casestore.Progress{}); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
