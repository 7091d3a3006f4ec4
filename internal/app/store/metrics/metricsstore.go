// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the back-office dashboard.
type Counts struct {
	Prospects         map[string]int64 `json:"prospects"` // by status
	Clients           int64            `json:"clients"`
	Cases             map[string]int64 `json:"cases"` // by status
	PendingPayments   int64            `json:"pending_payments"`
	ConfirmedPayments int64            `json:"confirmed_payments"`
	UnreadAlerts      int64            `json:"unread_notifications"`
}

// Scope narrows the counts to what one caller may see. The zero value
// counts nothing; All counts everything.
type Scope struct {
	All          bool
	EmployeeID   *models.UserID // prospects, clients, cases and payments of this employee
	ConsultantID *models.UserID // prospects referred to this consultant
	AllClients   bool           // count every client profile (consultants read all clients)
	ViewerID     models.UserID  // owner of the unread-notification count
}

// FetchDashboardCounts returns the dashboard totals for scope.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, scope Scope) Counts {
	out := Counts{Prospects: map[string]int64{}, Cases: map[string]int64{}}

	// prospects
	var prospectFilter bson.M
	switch {
	case scope.All:
		prospectFilter = bson.M{}
	case scope.EmployeeID != nil:
		prospectFilter = bson.M{"assigned_to": *scope.EmployeeID}
	case scope.ConsultantID != nil:
		prospectFilter = bson.M{"assigned_consultant_id": *scope.ConsultantID}
	}
	if prospectFilter != nil {
		out.Prospects = countByStatus(ctx, db.Collection("contact_messages"), prospectFilter)
	}

	// clients, and the client users whose cases and payments are in scope
	var clientUsers bson.M
	switch {
	case scope.All:
		clientUsers = bson.M{}
		if n, err := db.Collection("clients").CountDocuments(ctx, bson.M{}); err == nil {
			out.Clients = n
		}
	case scope.EmployeeID != nil:
		filter := bson.M{"assigned_employee_id": *scope.EmployeeID}
		if n, err := db.Collection("clients").CountDocuments(ctx, filter); err == nil {
			out.Clients = n
		}
		if ids, err := db.Collection("clients").Distinct(ctx, "user_id", filter); err == nil {
			clientUsers = bson.M{"$in": ids}
		}
	case scope.AllClients:
		if n, err := db.Collection("clients").CountDocuments(ctx, bson.M{}); err == nil {
			out.Clients = n
		}
	}

	if clientUsers != nil {
		caseFilter := bson.M{}
		payFilter := bson.M{}
		if len(clientUsers) > 0 {
			caseFilter["client_id"] = clientUsers
			payFilter["client_user_id"] = clientUsers
		}
		out.Cases = countByStatus(ctx, db.Collection("cases"), caseFilter)

		byStatus := countByStatus(ctx, db.Collection("payments"), payFilter)
		out.PendingPayments = byStatus[models.PaymentPending]
		out.ConfirmedPayments = byStatus[models.PaymentConfirmed]
	}

	// unread notifications of the viewer
	if !scope.ViewerID.IsZero() {
		if n, err := db.Collection("notifications").CountDocuments(ctx,
			bson.M{"recipient_id": scope.ViewerID, "read": false}); err == nil {
			out.UnreadAlerts = n
		}
	}

	return out
}

func countByStatus(ctx context.Context, c *mongo.Collection, filter bson.M) map[string]int64 {
	out := map[string]int64{}
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return out
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err == nil {
			out[row.Status] = row.N
		}
	}
	return out
}
