// internal/app/store/cases/store.go
package casestore

import (
	"context"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cases")}
}

// Create inserts a case.
func (s *Store) Create(ctx context.Context, c models.Case) (models.Case, error) {
	if c.ID.IsZero() {
		c.ID = models.NewCaseID()
	}
	if c.Status == "" {
		c.Status = models.CaseStatusNew
	}
	if c.WorkflowSteps == nil {
		c.WorkflowSteps = []models.WorkflowStep{}
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Case{}, err
	}
	return c, nil
}

// Delete removes a case. Only used to undo a half-finished client creation.
func (s *Store) Delete(ctx context.Context, id models.CaseID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// GetByID loads a case. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id models.CaseID) (*models.Case, error) {
	var c models.Case
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestForClient returns the most recent case owned by a CLIENT user.
// Returns mongo.ErrNoDocuments if the client has none.
func (s *Store) LatestForClient(ctx context.Context, clientUserID models.UserID) (*models.Case, error) {
	var c models.Case
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if err := s.c.FindOne(ctx, bson.M{"client_id": clientUserID}, opts).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Filter narrows List. A nil ClientUserIDs matches every case; a non-nil
// empty slice matches none.
type Filter struct {
	ClientUserIDs []models.UserID
}

// List returns cases newest first, ties broken by id, so repeated calls
// over unchanged data return the same order.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Case, error) {
	out := []models.Case{}
	filter := bson.M{}
	if f.ClientUserIDs != nil {
		if len(f.ClientUserIDs) == 0 {
			return out, nil
		}
		filter["client_id"] = bson.M{"$in": f.ClientUserIDs}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Progress is the writable progress state of a case.
type Progress struct {
	Steps            []models.WorkflowStep
	CurrentStepIndex int
	Status           string
	Notes            string
}

// UpdateProgress replaces the progress fields and returns the updated case.
func (s *Store) UpdateProgress(ctx context.Context, id models.CaseID, p Progress) (*models.Case, error) {
	var c models.Case
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"workflow_steps":     p.Steps,
			"current_step_index": p.CurrentStepIndex,
			"status":             p.Status,
			"notes":              p.Notes,
			"updated_at":         time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
