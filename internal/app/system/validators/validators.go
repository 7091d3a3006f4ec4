// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/aloria/backoffice/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("clients", clientsSchema())
	ensure("cases", casesSchema())
	ensure("contact_messages", contactMessagesSchema())
	ensure("payments", paymentsSchema())
	ensure("notifications", notificationsSchema())

	// Bookkeeping collections; no validator.
	ensure("counters", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enumOf(values []string) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "full_name", "role", "status"},
			"properties": bson.M{
				"email":                nonBlank,
				"full_name":            nonBlank,
				"full_name_ci":         bson.M{"bsonType": "string"},
				"password_hash":        bson.M{"bsonType": "string"},
				"phone":                bson.M{"bsonType": "string"},
				"role":                 bson.M{"enum": enumOf(models.Roles)},
				"status":               bson.M{"enum": bson.A{models.UserStatusActive, models.UserStatusDisabled}},
				"must_change_password": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func clientsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "created_at"},
			"properties": bson.M{
				"user_id":              bson.M{"bsonType": "objectId"},
				"assigned_employee_id": bson.M{"bsonType": "objectId"},
				"country":              bson.M{"bsonType": "string"},
				"visa_type":            bson.M{"bsonType": "string"},
				"current_step":         bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"progress_percentage":  bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": 100},
				"created_at":           bson.M{"bsonType": "date"},
			},
		},
	}
}

func casesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"client_id", "client_profile_id", "workflow_steps", "status"},
			"properties": bson.M{
				"client_id":          bson.M{"bsonType": "objectId"},
				"client_profile_id":  bson.M{"bsonType": "objectId"},
				"workflow_steps":     bson.M{"bsonType": "array", "minItems": 1},
				"current_step_index": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"status":             bson.M{"enum": enumOf(models.CaseStatuses)},
				"notes":              bson.M{"bsonType": "string"},
			},
		},
	}
}

func contactMessagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "status", "conversion_probability"},
			"properties": bson.M{
				"name":  nonBlank,
				"email": nonBlank,
				"status": bson.M{"enum": bson.A{
					models.ProspectNew, models.ProspectAssigned, models.ProspectPayment50k,
					models.ProspectInConsultation, models.ProspectConverted,
				}},
				"conversion_probability": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": 100},
				"assigned_to":            bson.M{"bsonType": "objectId"},
				"assigned_consultant_id": bson.M{"bsonType": "objectId"},
				"consultant_notes":       bson.M{"bsonType": bson.A{"array", "null"}},
			},
		},
	}
}

func paymentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"client_id", "client_user_id", "amount", "currency", "status", "declared_at"},
			"properties": bson.M{
				"client_id":         bson.M{"bsonType": "objectId"},
				"client_user_id":    bson.M{"bsonType": "objectId"},
				"amount":            bson.M{"bsonType": "decimal"},
				"currency":          bson.M{"enum": enumOf(models.Currencies)},
				"status":            bson.M{"enum": bson.A{models.PaymentPending, models.PaymentConfirmed, models.PaymentRejected}},
				"declared_at":       bson.M{"bsonType": "date"},
				"confirmation_code": bson.M{"bsonType": "string"},
				"invoice_number":    bson.M{"bsonType": "string"},
			},
		},
	}
}

func notificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"recipient_id", "type", "title", "read", "created_at"},
			"properties": bson.M{
				"recipient_id": bson.M{"bsonType": "objectId"},
				"type":         nonBlank,
				"title":        bson.M{"bsonType": "string"},
				"message":      bson.M{"bsonType": "string"},
				"read":         bson.M{"bsonType": "bool"},
				"created_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}
