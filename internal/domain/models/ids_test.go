package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestID_BSONIsPlainObjectID(t *testing.T) {
	id := NewUserID()
	raw, err := bson.Marshal(bson.M{"user_id": id})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var plain struct {
		UserID primitive.ObjectID `bson:"user_id"`
	}
	if err := bson.Unmarshal(raw, &plain); err != nil {
		t.Fatalf("Unmarshal into ObjectID failed: %v", err)
	}
	if plain.UserID != id.ObjectID() {
		t.Errorf("decoded %s, want %s", plain.UserID.Hex(), id.Hex())
	}

	var typed struct {
		UserID UserID `bson:"user_id"`
	}
	if err := bson.Unmarshal(raw, &typed); err != nil {
		t.Fatalf("Unmarshal into UserID failed: %v", err)
	}
	if typed.UserID != id {
		t.Errorf("decoded %s, want %s", typed.UserID, id)
	}
}

func TestID_JSONHex(t *testing.T) {
	id := NewPaymentID()
	b, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != `"`+id.Hex()+`"` {
		t.Errorf("json = %s, want hex string", b)
	}

	var back PaymentID
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != id {
		t.Errorf("round trip = %s, want %s", back, id)
	}

	var empty PaymentID
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil || !empty.IsZero() {
		t.Errorf("empty string: id=%s err=%v, want zero id", empty, err)
	}
	if err := json.Unmarshal([]byte(`"nope"`), &empty); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestParseID(t *testing.T) {
	id := NewClientProfileID()
	got, err := ParseClientProfileID(id.Hex())
	if err != nil || got != id {
		t.Errorf("ParseClientProfileID = %s, %v", got, err)
	}
	if _, err := ParseCaseID("xyz"); err == nil {
		t.Error("expected error for malformed hex")
	}
}

func TestCase_Progress(t *testing.T) {
	c := Case{WorkflowSteps: []WorkflowStep{{Completed: true}, {Completed: true}, {}, {}}, CurrentStepIndex: 2}
	if got := c.Progress(); got != 50 {
		t.Errorf("Progress = %d, want 50", got)
	}
	if got := (Case{}).Progress(); got != 0 {
		t.Errorf("empty Progress = %d, want 0", got)
	}
	c.WorkflowSteps[2].Title = "Dépôt"
	if got := c.CurrentStepTitle(); got != "Dépôt" {
		t.Errorf("CurrentStepTitle = %q", got)
	}
}

func TestNormalizeRole(t *testing.T) {
	if NormalizeRole(" manager ") != RoleManager {
		t.Error("expected manager to normalize to MANAGER")
	}
	if !IsValidRole("client") || IsValidRole("admin") {
		t.Error("IsValidRole mismatch")
	}
}
