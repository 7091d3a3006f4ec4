// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, e := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"clients", ensureClients},
		{"cases", ensureCases},
		{"contact_messages", ensureContactMessages},
		{"payments", ensurePayments},
		{"notifications", ensureNotifications},
		{"audit_events", ensureAuditEvents},
	} {
		if err := e.fn(ctx, db); err != nil {
			problems = append(problems, e.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile the desired indexes of one collection                            */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

type desiredIndex struct {
	model  mongo.IndexModel
	name   string
	sig    string
	unique bool
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Returned when an index with the same keys exists under another name or options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func createErr(coll *mongo.Collection, d desiredIndex, err error) error {
	if d.unique && isDuplicateKeyErr(err) {
		return fmt.Errorf("%s(%s): cannot create unique index, duplicates present on %s",
			coll.Name(), d.name, d.sig)
	}
	return fmt.Errorf("%s(%s): %w", coll.Name(), d.name, err)
}

// recreate drops the index called oldName and creates d in its place.
func recreate(ctx context.Context, coll *mongo.Collection, oldName string, d desiredIndex) error {
	if _, err := coll.Indexes().DropOne(ctx, oldName); err != nil {
		return fmt.Errorf("%s(%s): drop %s failed: %w", coll.Name(), d.name, oldName, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		return createErr(coll, d, err)
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		var err error
		outcome := "index ensured"
		if ex, ok := existing[d.sig]; ok {
			exUnique := ex.Unique != nil && *ex.Unique
			switch {
			case exUnique != d.unique:
				outcome = "index dropped and recreated"
				err = recreate(ctx, coll, ex.Name, d)
			case d.name != "" && ex.Name != d.name:
				outcome = "index renamed from " + ex.Name
				err = recreate(ctx, coll, ex.Name, d)
			default:
				outcome = "reusing existing index"
			}
		} else if _, cerr := coll.Indexes().CreateOne(ctx, m); cerr != nil {
			err = createErr(coll, d, cerr)
			if isOptionsConflictErr(cerr) {
				if ex, ok := listIndexes(ctx, coll)[d.sig]; ok {
					outcome = "index dropped and recreated after conflict"
					err = recreate(ctx, coll, ex.Name, d)
				}
			}
		}

		if err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = append(errs, err.Error())
			continue
		}
		log.Info(outcome, zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Email is the login identifier and must be unique.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Staff pickers and least-loaded assignment: active users of a role by name.
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_role_status_fullnameci_id"),
		},
	})
}

func ensureClients(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("clients"), []mongo.IndexModel{
		// One profile per client user; also the ownership lookup for payments.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_clients_user"),
		},
		// Employee workload counts and "my clients" lists.
		{
			Keys: bson.D{
				{Key: "assigned_employee_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_clients_employee_created"),
		},
	})
}

func ensureCases(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("cases"), []mongo.IndexModel{
		// "My cases" for a signed-in client; client_id is the owning user id.
		{
			Keys: bson.D{
				{Key: "client_id", Value: 1},
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("idx_cases_client_created_id"),
		},
		{
			Keys:    bson.D{{Key: "client_profile_id", Value: 1}},
			Options: options.Index().SetName("idx_cases_profile"),
		},
		// Unfiltered lists sorted newest first.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_cases_created_id"),
		},
	})
}

func ensureContactMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("contact_messages"), []mongo.IndexModel{
		// Consultant queue and status filters.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_contact_status_created"),
		},
		// Per-assignee pipeline.
		{
			Keys:    bson.D{{Key: "assigned_to", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_contact_assignee_created"),
		},
		{
			Keys:    bson.D{{Key: "assigned_consultant_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_contact_consultant_status"),
		},
	})
}

func ensurePayments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("payments"), []mongo.IndexModel{
		// Pending queue and history lists.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "declared_at", Value: -1}},
			Options: options.Index().SetName("idx_payments_status_declared"),
		},
		// Client history.
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "declared_at", Value: -1}},
			Options: options.Index().SetName("idx_payments_client_declared"),
		},
		// Per-user payment counts.
		{
			Keys:    bson.D{{Key: "client_user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_payments_clientuser_status"),
		},
		// Confirmed payments still waiting for an invoice artifact.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "confirmed_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_payments_status_confirmed_id"),
		},
		// Invoice numbers are unique once assigned; pending payments have none.
		{
			Keys: bson.D{{Key: "invoice_number", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"invoice_number": bson.M{"$type": "string"}}).
				SetName("uniq_payments_invoice_number"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "recipient_id", Value: 1},
				{Key: "read", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_notifications_recipient_read_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
