package contactmessagestore_test

import (
	"errors"
	"testing"

	contactmessagestore "github.com/aloria/backoffice/internal/app/store/contactmessages"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/aloria/backoffice/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateForcesNewStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactmessagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.ContactMessage{
		Name: "Jean", Email: "jean@example.com", Message: "Bonjour",
		Status: models.ProspectConverted, ConversionProbability: 42,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Status != models.ProspectNew {
		t.Errorf("Status: got %q, want %q", m.Status, models.ProspectNew)
	}

	got, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ConversionProbability != 42 {
		t.Errorf("ConversionProbability: got %d", got.ConversionProbability)
	}
	if got.ConsultantNotes == nil {
		t.Error("expected empty note log, not nil")
	}
}

func TestStore_Transition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactmessagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	emp := fixtures.CreateUser(ctx, "Emp", "emp@example.com", models.RoleEmployee)
	p := fixtures.CreateProspect(ctx, "P", "p@example.com", models.ProspectNew, nil)

	updated, err := store.Transition(ctx, p.ID,
		[]string{models.ProspectNew, models.ProspectAssigned},
		bson.M{"$set": bson.M{"status": models.ProspectAssigned, "assigned_to": emp.ID}})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if updated.Status != models.ProspectAssigned || updated.AssignedTo == nil || *updated.AssignedTo != emp.ID {
		t.Errorf("unexpected prospect after assign: %+v", updated)
	}

	// Not allowed from assigned.
	_, err = store.Transition(ctx, p.ID, []string{models.ProspectPayment50k},
		bson.M{"$set": bson.M{"status": models.ProspectInConsultation}})
	if !errors.Is(err, contactmessagestore.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Status != models.ProspectAssigned {
		t.Errorf("expected no partial write, status is %q", got.Status)
	}

	_, err = store.Transition(ctx, models.NewProspectID(), []string{models.ProspectNew},
		bson.M{"$set": bson.M{"status": models.ProspectAssigned}})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for unknown prospect, got %v", err)
	}
}

func TestStore_Transition_PushNote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactmessagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	con := fixtures.CreateUser(ctx, "Con", "con@example.com", models.RoleConsultant)
	p := fixtures.CreateProspect(ctx, "P", "p@example.com", models.ProspectPayment50k, nil)

	for _, text := range []string{"premier", "second"} {
		_, err := store.Transition(ctx, p.ID,
			[]string{models.ProspectPayment50k, models.ProspectInConsultation},
			bson.M{
				"$set":  bson.M{"status": models.ProspectInConsultation},
				"$push": bson.M{"consultant_notes": models.ConsultantNote{AuthorID: con.ID, AuthorName: con.FullName, Note: text}},
			})
		if err != nil {
			t.Fatalf("Transition(%s) failed: %v", text, err)
		}
	}

	got, _ := store.GetByID(ctx, p.ID)
	if len(got.ConsultantNotes) != 2 || got.ConsultantNotes[0].Note != "premier" || got.ConsultantNotes[1].Note != "second" {
		t.Errorf("expected notes appended in order, got %+v", got.ConsultantNotes)
	}
}

func TestStore_List_Scopes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactmessagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	emp := fixtures.CreateUser(ctx, "Emp", "emp@example.com", models.RoleEmployee)
	con := fixtures.CreateUser(ctx, "Con", "con@example.com", models.RoleConsultant)
	other := fixtures.CreateUser(ctx, "Other", "other@example.com", models.RoleConsultant)

	fixtures.CreateProspect(ctx, "New", "n@example.com", models.ProspectNew, nil)
	fixtures.CreateProspect(ctx, "Mine", "m@example.com", models.ProspectAssigned, &emp.ID)
	fixtures.CreateProspect(ctx, "Waiting", "w@example.com", models.ProspectPayment50k, &emp.ID)
	inMine := fixtures.CreateProspect(ctx, "InMine", "im@example.com", models.ProspectInConsultation, &emp.ID)
	inOther := fixtures.CreateProspect(ctx, "InOther", "io@example.com", models.ProspectInConsultation, &emp.ID)
	db.Collection("contact_messages").UpdateOne(ctx, bson.M{"_id": inMine.ID}, bson.M{"$set": bson.M{"assigned_consultant_id": con.ID}})
	db.Collection("contact_messages").UpdateOne(ctx, bson.M{"_id": inOther.ID}, bson.M{"$set": bson.M{"assigned_consultant_id": other.ID}})

	all, _ := store.List(ctx, contactmessagestore.Filter{})
	if len(all) != 5 {
		t.Errorf("expected 5 prospects, got %d", len(all))
	}

	assigned, _ := store.List(ctx, contactmessagestore.Filter{AssignedTo: &emp.ID})
	if len(assigned) != 4 {
		t.Errorf("expected 4 assigned to emp, got %d", len(assigned))
	}

	other2 := models.NewUserID()
	withFree, _ := store.List(ctx, contactmessagestore.Filter{AssignedTo: &other2, Unassigned: true})
	if len(withFree) != 1 || withFree[0].Status != models.ProspectNew {
		t.Errorf("expected only the unassigned prospect, got %d", len(withFree))
	}
	newOnly, _ := store.List(ctx, contactmessagestore.Filter{AssignedTo: &emp.ID, Unassigned: true, Status: models.ProspectNew})
	if len(newOnly) != 1 {
		t.Errorf("expected 1 new prospect with status filter, got %d", len(newOnly))
	}

	consultant, _ := store.List(ctx, contactmessagestore.Filter{Consultant: &con.ID})
	if len(consultant) != 2 {
		t.Errorf("expected 2 prospects for consultant, got %d", len(consultant))
	}

	waiting, _ := store.List(ctx, contactmessagestore.Filter{Consultant: &con.ID, Status: models.ProspectPayment50k})
	if len(waiting) != 1 {
		t.Errorf("expected 1 waiting prospect, got %d", len(waiting))
	}
}
