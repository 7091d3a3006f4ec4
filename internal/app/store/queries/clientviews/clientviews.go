// Package clientviews joins client profiles with their owning and assigned users.
package clientviews

import (
	"context"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Filter narrows the listing. Zero values match everything.
type Filter struct {
	AssignedEmployeeID *models.UserID
	ClientID           *models.ClientProfileID
	UserID             *models.UserID
}

type row struct {
	models.Client `bson:",inline"`
	Owner         []models.User `bson:"owner"`
	Employee      []models.User `bson:"employee"`
}

// List returns profiles joined with their owner (name, email, phone) and
// assigned employee name, newest first.
func List(ctx context.Context, db *mongo.Database, f Filter) ([]models.ClientView, error) {
	match := bson.M{}
	if f.AssignedEmployeeID != nil {
		match["assigned_employee_id"] = *f.AssignedEmployeeID
	}
	if f.ClientID != nil {
		match["_id"] = *f.ClientID
	}
	if f.UserID != nil {
		match["user_id"] = *f.UserID
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$sort": bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "owner",
		}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "assigned_employee_id",
			"foreignField": "_id",
			"as":           "employee",
		}},
	}

	cur, err := db.Collection("clients").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ClientView{}
	for cur.Next(ctx) {
		var r row
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, models.NewClientView(r.Client, first(r.Owner), first(r.Employee)))
	}
	return out, cur.Err()
}

// Get returns one joined profile. Returns mongo.ErrNoDocuments if not found.
func Get(ctx context.Context, db *mongo.Database, id models.ClientProfileID) (*models.ClientView, error) {
	views, err := List(ctx, db, Filter{ClientID: &id})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &views[0], nil
}

// GetByUser returns the joined profile owned by userID. Returns mongo.ErrNoDocuments if none.
func GetByUser(ctx context.Context, db *mongo.Database, userID models.UserID) (*models.ClientView, error) {
	views, err := List(ctx, db, Filter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &views[0], nil
}

func first(us []models.User) *models.User {
	if len(us) == 0 {
		return nil
	}
	return &us[0]
}
