// internal/app/store/payments/store.go
package paymentstore

import (
	"context"
	"errors"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotPending is returned when a transition targets a payment that exists
// but is already confirmed or rejected.
var ErrNotPending = errors.New("payment is not pending")

// ErrCodeMismatch is returned by Confirm when the payment is pending but the
// supplied code does not match the one issued.
var ErrCodeMismatch = errors.New("confirmation code does not match")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("payments")}
}

// Create inserts a pending payment.
func (s *Store) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	if p.ID.IsZero() {
		p.ID = models.NewPaymentID()
	}
	p.Status = models.PaymentPending
	p.ConfirmationCode = nil
	p.InvoiceNumber = nil
	p.InvoicePath = nil
	if p.DeclaredAt.IsZero() {
		p.DeclaredAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Payment{}, err
	}
	return p, nil
}

// GetByID loads a payment. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id models.PaymentID) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByInvoiceNumber loads a confirmed payment by invoice number.
func (s *Store) GetByInvoiceNumber(ctx context.Context, number string) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.FindOne(ctx, bson.M{"invoice_number": number}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPending returns pending payments, oldest declaration first.
func (s *Store) ListPending(ctx context.Context) ([]models.Payment, error) {
	return s.find(ctx, bson.M{"status": models.PaymentPending}, 1)
}

// ListHistory returns confirmed and rejected payments, newest first.
func (s *Store) ListHistory(ctx context.Context) ([]models.Payment, error) {
	return s.find(ctx, bson.M{"status": bson.M{"$in": []string{models.PaymentConfirmed, models.PaymentRejected}}}, -1)
}

// ListByClientUser returns every payment declared by a client user, newest first.
func (s *Store) ListByClientUser(ctx context.Context, userID models.UserID) ([]models.Payment, error) {
	return s.find(ctx, bson.M{"client_user_id": userID}, -1)
}

// ListMissingInvoice returns up to limit confirmed payments whose invoice
// was never stored, oldest confirmation first.
func (s *Store) ListMissingInvoice(ctx context.Context, limit int64) ([]models.Payment, error) {
	filter := bson.M{
		"status":         models.PaymentConfirmed,
		"invoice_number": bson.M{"$ne": nil},
		"invoice_path":   nil,
	}
	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "confirmed_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Payment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, dir int) ([]models.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "declared_at", Value: dir}, {Key: "_id", Value: dir}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Payment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCode stores a freshly issued confirmation code, replacing any earlier
// one. Only pending payments accept a code.
func (s *Store) SetCode(ctx context.Context, id models.PaymentID, code string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.PaymentPending},
		bson.M{"$set": bson.M{"confirmation_code": code}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missReason(ctx, id)
	}
	return nil
}

// Confirm moves a pending payment to confirmed if code matches the issued
// code, assigning invoiceNumber in the same write. The code is cleared.
// at is stored as confirmed_at and should be the instant the invoice number
// was derived from.
func (s *Store) Confirm(ctx context.Context, id models.PaymentID, code string, by models.UserID, invoiceNumber string, at time.Time) (*models.Payment, error) {
	now := at.UTC()
	var p models.Payment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.PaymentPending, "confirmation_code": code},
		bson.M{
			"$set": bson.M{
				"status":         models.PaymentConfirmed,
				"confirmed_at":   now,
				"confirmed_by":   by,
				"invoice_number": invoiceNumber,
			},
			"$unset": bson.M{"confirmation_code": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if reason := s.missReason(ctx, id); reason != nil {
		return nil, reason
	}
	return nil, ErrCodeMismatch
}

// Reject moves a pending payment to rejected, stamping rejected_at with at.
func (s *Store) Reject(ctx context.Context, id models.PaymentID, reason string, at time.Time) (*models.Payment, error) {
	now := at.UTC()
	var p models.Payment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.PaymentPending},
		bson.M{
			"$set":   bson.M{"status": models.PaymentRejected, "rejected_at": now, "rejection_reason": reason},
			"$unset": bson.M{"confirmation_code": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.missReason(ctx, id)
}

// SetInvoice records where a rendered invoice artifact lives.
func (s *Store) SetInvoice(ctx context.Context, id models.PaymentID, path, contentType string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.PaymentConfirmed},
		bson.M{"$set": bson.M{"invoice_path": path, "invoice_content_type": contentType}})
	return err
}

// SetEmailSent records the outcome of the confirmation email.
func (s *Store) SetEmailSent(ctx context.Context, id models.PaymentID, sent bool) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"email_sent": sent}})
	return err
}

// missReason explains why a pending-only update matched nothing.
// It returns nil when the payment is still pending.
func (s *Store) missReason(ctx context.Context, id models.PaymentID) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != models.PaymentPending {
		return ErrNotPending
	}
	return nil
}
