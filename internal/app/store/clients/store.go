// internal/app/store/clients/store.go
package clientstore

import (
	"context"
	"errors"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrProfileExists is returned when the user already owns a client profile.
var ErrProfileExists = errors.New("client profile already exists for this user")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clients")}
}

// Create inserts a client profile.
func (s *Store) Create(ctx context.Context, c models.Client) (models.Client, error) {
	if c.ID.IsZero() {
		c.ID = models.NewClientProfileID()
	}
	if c.CurrentStatus == "" {
		c.CurrentStatus = models.CaseStatusNew
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Client{}, ErrProfileExists
		}
		return models.Client{}, err
	}
	return c, nil
}

// Delete removes a profile. Only used to undo a half-finished client creation.
func (s *Store) Delete(ctx context.Context, id models.ClientProfileID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// GetByID loads a profile. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id models.ClientProfileID) (*models.Client, error) {
	var c models.Client
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByUserID loads the profile owned by a CLIENT user. Returns mongo.ErrNoDocuments if none.
func (s *Store) GetByUserID(ctx context.Context, userID models.UserID) (*models.Client, error) {
	var c models.Client
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UserIDsAssignedTo returns the owning user ids of the clients assigned to employeeID.
func (s *Store) UserIDsAssignedTo(ctx context.Context, employeeID models.UserID) ([]models.UserID, error) {
	cur, err := s.c.Find(ctx, bson.M{"assigned_employee_id": employeeID},
		options.Find().SetProjection(bson.M{"user_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []models.UserID{}
	for cur.Next(ctx) {
		var row struct {
			UserID models.UserID `bson:"user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.UserID)
	}
	return ids, cur.Err()
}

// Reassign sets the assigned employee and returns the profile as it was before.
func (s *Store) Reassign(ctx context.Context, id models.ClientProfileID, employeeID models.UserID) (*models.Client, error) {
	var before models.Client
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"assigned_employee_id": employeeID,
			"updated_at":           time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return nil, err
	}
	return &before, nil
}

// SetAssignedEmployee sets the employee without reading the previous value.
func (s *Store) SetAssignedEmployee(ctx context.Context, id models.ClientProfileID, employeeID models.UserID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"assigned_employee_id": employeeID,
		"updated_at":           time.Now().UTC(),
	}})
	return err
}

// UpdateProgress mirrors case progress onto the profile.
func (s *Store) UpdateProgress(ctx context.Context, id models.ClientProfileID, step int, status string, progress int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"current_step":        step,
		"current_status":      status,
		"progress_percentage": progress,
		"updated_at":          time.Now().UTC(),
	}})
	return err
}

// CountByEmployee returns how many clients each of employeeIDs is assigned.
// Employees with no clients are present with a zero count.
func (s *Store) CountByEmployee(ctx context.Context, employeeIDs []models.UserID) (map[models.UserID]int64, error) {
	out := make(map[models.UserID]int64, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return out, nil
	}
	for _, id := range employeeIDs {
		out[id] = 0
	}

	pipeline := []bson.M{
		{"$match": bson.M{"assigned_employee_id": bson.M{"$in": employeeIDs}}},
		{"$group": bson.M{"_id": "$assigned_employee_id", "count": bson.M{"$sum": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID    models.UserID `bson:"_id"`
			Count int64         `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Count
	}
	return out, cur.Err()
}
