// internal/domain/models/contactmessage.go
package models

import "time"

// Prospect pipeline statuses.
const (
	ProspectNew            = "nouveau"
	ProspectAssigned       = "assigned"
	ProspectPayment50k     = "paiement_50k"
	ProspectInConsultation = "en_consultation"
	ProspectConverted      = "converti_client"
)

// ReferralPaymentAmount is the flat amount recorded when a prospect is sent to consultation.
const ReferralPaymentAmount = 50000

// ConsultantNote is one entry of a prospect's append-only note log.
type ConsultantNote struct {
	AuthorID   UserID    `bson:"author_id" json:"author_id"`
	AuthorName string    `bson:"author_name" json:"author_name"`
	Note       string    `bson:"note" json:"note"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// ContactMessage is a prospect: a contact-form submission that may become a client.
type ContactMessage struct {
	ID                 ProspectID `bson:"_id" json:"id"`
	Name               string     `bson:"name" json:"name"`
	Email              string     `bson:"email" json:"email"`
	Phone              string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Country            string     `bson:"country,omitempty" json:"country,omitempty"`
	VisaType           string     `bson:"visa_type,omitempty" json:"visa_type,omitempty"`
	BudgetRange        string     `bson:"budget_range,omitempty" json:"budget_range,omitempty"`
	UrgencyLevel       string     `bson:"urgency_level,omitempty" json:"urgency_level,omitempty"`
	Message            string     `bson:"message" json:"message"`
	LeadSource         string     `bson:"lead_source,omitempty" json:"lead_source,omitempty"`
	HowDidYouKnow      string     `bson:"how_did_you_know,omitempty" json:"how_did_you_know,omitempty"`
	ReferredByEmployee string     `bson:"referred_by_employee,omitempty" json:"referred_by_employee,omitempty"`

	// ConversionProbability is computed once at intake and never recomputed.
	ConversionProbability int `bson:"conversion_probability" json:"conversion_probability"`

	Status               string           `bson:"status" json:"status"`
	AssignedTo           *UserID          `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	AssignedConsultantID *UserID          `bson:"assigned_consultant_id,omitempty" json:"assigned_consultant_id,omitempty"`
	Payment50kAmount     int64            `bson:"payment_50k_amount,omitempty" json:"payment_50k_amount,omitempty"`
	ConsultantNotes      []ConsultantNote `bson:"consultant_notes" json:"consultant_notes"`
	ConvertedClientID    *ClientProfileID `bson:"converted_client_id,omitempty" json:"converted_client_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
