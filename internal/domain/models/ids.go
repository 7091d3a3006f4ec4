// internal/domain/models/ids.go
package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is a Mongo ObjectID tagged with the kind of record it identifies.
//
// A Client profile and its owning User are different documents with different
// ObjectIDs. Tagging the id with its kind means UserID and ClientProfileID are
// distinct types, so comparing one against the other does not compile.
//
// On the wire (BSON and JSON) an ID is indistinguishable from a plain ObjectID.
type ID[K any] primitive.ObjectID

type (
	userKind          struct{}
	clientProfileKind struct{}
	caseKind          struct{}
	paymentKind       struct{}
	prospectKind      struct{}
	notificationKind  struct{}
)

type (
	UserID          = ID[userKind]
	ClientProfileID = ID[clientProfileKind]
	CaseID          = ID[caseKind]
	PaymentID       = ID[paymentKind]
	ProspectID      = ID[prospectKind]
	NotificationID  = ID[notificationKind]
)

func NewUserID() UserID                   { return UserID(primitive.NewObjectID()) }
func NewClientProfileID() ClientProfileID { return ClientProfileID(primitive.NewObjectID()) }
func NewCaseID() CaseID                   { return CaseID(primitive.NewObjectID()) }
func NewPaymentID() PaymentID             { return PaymentID(primitive.NewObjectID()) }
func NewProspectID() ProspectID           { return ProspectID(primitive.NewObjectID()) }
func NewNotificationID() NotificationID   { return NotificationID(primitive.NewObjectID()) }

func ParseUserID(s string) (UserID, error)                   { return parseID[userKind](s) }
func ParseClientProfileID(s string) (ClientProfileID, error) { return parseID[clientProfileKind](s) }
func ParseCaseID(s string) (CaseID, error)                   { return parseID[caseKind](s) }
func ParsePaymentID(s string) (PaymentID, error)             { return parseID[paymentKind](s) }
func ParseProspectID(s string) (ProspectID, error)           { return parseID[prospectKind](s) }
func ParseNotificationID(s string) (NotificationID, error)   { return parseID[notificationKind](s) }

func parseID[K any](s string) (ID[K], error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return ID[K]{}, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID[K](oid), nil
}

// ObjectID returns the untagged ObjectID.
func (id ID[K]) ObjectID() primitive.ObjectID { return primitive.ObjectID(id) }

// Hex returns the 24-character hex form.
func (id ID[K]) Hex() string { return primitive.ObjectID(id).Hex() }

func (id ID[K]) String() string { return id.Hex() }

// IsZero reports whether the id is unset. The BSON encoder uses it for omitempty.
func (id ID[K]) IsZero() bool { return primitive.ObjectID(id).IsZero() }

func (id ID[K]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(primitive.ObjectID(id))
}

func (id *ID[K]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var oid primitive.ObjectID
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&oid); err != nil {
		return err
	}
	*id = ID[K](oid)
	return nil
}

func (id ID[K]) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

func (id *ID[K]) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*id = ID[K]{}
		return nil
	}
	parsed, err := parseID[K](s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
