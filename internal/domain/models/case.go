// internal/domain/models/case.go
package models

import "time"

// Case statuses.
const (
	CaseStatusNew       = "nouveau"
	CaseStatusInProcess = "en_cours"
	CaseStatusWaiting   = "en_attente"
	CaseStatusDone      = "termine"
	CaseStatusCancelled = "annule"
)

// CaseStatuses lists every valid case status.
var CaseStatuses = []string{CaseStatusNew, CaseStatusInProcess, CaseStatusWaiting, CaseStatusDone, CaseStatusCancelled}

// WorkflowStep is one checklist entry of a case.
type WorkflowStep struct {
	Title     string `bson:"title" json:"title"`
	Duration  string `bson:"duration" json:"duration"`
	Completed bool   `bson:"completed" json:"completed"`
}

// Case is the tracked immigration process of a converted client.
//
// ClientID is the owning *User* id, not the Client profile id. Queries that
// look up "my cases" for a signed-in client match on it directly.
type Case struct {
	ID               CaseID          `bson:"_id" json:"id"`
	ClientID         UserID          `bson:"client_id" json:"client_id"`
	ClientProfileID  ClientProfileID `bson:"client_profile_id" json:"client_profile_id"`
	Country          string          `bson:"country" json:"country"`
	VisaType         string          `bson:"visa_type" json:"visa_type"`
	WorkflowSteps    []WorkflowStep  `bson:"workflow_steps" json:"workflow_steps"`
	CurrentStepIndex int             `bson:"current_step_index" json:"current_step_index"`
	Status           string          `bson:"status" json:"status"`
	Notes            string          `bson:"notes" json:"notes"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at"`
}

// Progress returns the completed share of the workflow as a 0–100 integer.
func (c Case) Progress() int {
	if len(c.WorkflowSteps) == 0 {
		return 0
	}
	done := 0
	for _, s := range c.WorkflowSteps {
		if s.Completed {
			done++
		}
	}
	return done * 100 / len(c.WorkflowSteps)
}

// CurrentStepTitle returns the title of the current step, or "" if out of range.
func (c Case) CurrentStepTitle() string {
	if c.CurrentStepIndex < 0 || c.CurrentStepIndex >= len(c.WorkflowSteps) {
		return ""
	}
	return c.WorkflowSteps[c.CurrentStepIndex].Title
}
