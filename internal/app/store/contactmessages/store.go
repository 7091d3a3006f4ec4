// internal/app/store/contactmessages/store.go
package contactmessagestore

import (
	"context"
	"errors"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStateConflict is returned by Transition when the prospect exists but is
// not in one of the states the transition starts from.
var ErrStateConflict = errors.New("prospect is not in a state that allows this action")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contact_messages")}
}

// Create inserts a new prospect in status nouveau.
func (s *Store) Create(ctx context.Context, m models.ContactMessage) (models.ContactMessage, error) {
	if m.ID.IsZero() {
		m.ID = models.NewProspectID()
	}
	m.Status = models.ProspectNew
	if m.ConsultantNotes == nil {
		m.ConsultantNotes = []models.ConsultantNote{}
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.ContactMessage{}, err
	}
	return m, nil
}

// GetByID loads a prospect. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id models.ProspectID) (*models.ContactMessage, error) {
	var m models.ContactMessage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status     string
	AssignedTo *models.UserID
	// Unassigned widens AssignedTo to also match prospects nobody holds yet.
	Unassigned bool
	// Consultant restricts to prospects awaiting consultation plus those in
	// consultation with this consultant.
	Consultant *models.UserID
}

// List returns prospects newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.ContactMessage, error) {
	var clauses bson.A
	switch {
	case f.AssignedTo != nil && f.Unassigned:
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"assigned_to": *f.AssignedTo},
			bson.M{"assigned_to": nil},
		}})
	case f.AssignedTo != nil:
		clauses = append(clauses, bson.M{"assigned_to": *f.AssignedTo})
	}
	if f.Consultant != nil {
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"status": models.ProspectPayment50k},
			bson.M{"status": models.ProspectInConsultation, "assigned_consultant_id": *f.Consultant},
		}})
	}
	if f.Status != "" {
		clauses = append(clauses, bson.M{"status": f.Status})
	}
	filter := bson.M{}
	if len(clauses) > 0 {
		filter["$and"] = clauses
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ContactMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transition applies update if and only if the prospect's status is one of
// from, as a single compare-and-swap. It returns the updated prospect.
// On a miss it re-reads: mongo.ErrNoDocuments if the prospect does not exist,
// ErrStateConflict otherwise.
func (s *Store) Transition(ctx context.Context, id models.ProspectID, from []string, update bson.M) (*models.ContactMessage, error) {
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updated_at"] = time.Now().UTC()

	var m models.ContactMessage
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStateConflict
}
