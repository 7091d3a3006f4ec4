package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/aloria/backoffice/internal/app/system/normalize"
	"github.com/aloria/backoffice/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New("role must be one of SUPERADMIN|MANAGER|EMPLOYEE|CONSULTANT|CLIENT")
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errNoEmail        = errors.New("email is required")
)

// GetByID loads a user by id. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetActiveWithRole loads an active user holding one of roles.
// Returns mongo.ErrNoDocuments when no such user exists.
func (s *Store) GetActiveWithRole(ctx context.Context, id models.UserID, roles ...string) (*models.User, error) {
	var u models.User
	filter := bson.M{
		"_id":    id,
		"role":   bson.M{"$in": normalizeRoles(roles)},
		"status": models.UserStatusActive,
	}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailExists reports whether any user has email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// Create inserts a new user after normalizing & validating fields.
// PasswordHash must already be set by the caller.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = models.NewUserID()
	}
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = normalize.NameCI(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Phone = normalize.Phone(u.Phone)
	u.Role = models.NormalizeRole(u.Role)
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}

	if u.Email == "" {
		return models.User{}, errNoEmail
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if u.Status != models.UserStatusActive && u.Status != models.UserStatusDisabled {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Delete removes a user. Only used to undo a half-finished client creation.
func (s *Store) Delete(ctx context.Context, id models.UserID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// SetPassword replaces the password hash and sets the must-change flag.
func (s *Store) SetPassword(ctx context.Context, id models.UserID, hash string, mustChange bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash":        hash,
		"must_change_password": mustChange,
		"updated_at":           time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRoleAndActivate sets role and re-enables the account. Used by superadmin bootstrap.
func (s *Store) SetRoleAndActivate(ctx context.Context, id models.UserID, role string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       models.NormalizeRole(role),
		"status":     models.UserStatusActive,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByRole returns users with one of roles sorted by name. An empty roles
// list returns every user. activeOnly filters out disabled accounts.
func (s *Store) ListByRole(ctx context.Context, activeOnly bool, roles ...string) ([]models.User, error) {
	filter := bson.M{}
	if len(roles) > 0 {
		filter["role"] = bson.M{"$in": normalizeRoles(roles)}
	}
	if activeOnly {
		filter["status"] = models.UserStatusActive
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveIDsByRole returns the ids of active users with one of roles.
func (s *Store) ActiveIDsByRole(ctx context.Context, roles ...string) ([]models.UserID, error) {
	filter := bson.M{
		"role":   bson.M{"$in": normalizeRoles(roles)},
		"status": models.UserStatusActive,
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []models.UserID
	for cur.Next(ctx) {
		var row struct {
			ID models.UserID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// GetMany loads users by id, keyed by id. Missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []models.UserID) (map[models.UserID]models.User, error) {
	out := make(map[models.UserID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"password_hash": 0}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, models.NormalizeRole(r))
	}
	return out
}
