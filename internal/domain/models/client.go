// internal/domain/models/client.go
package models

import "time"

// Client is the immigration profile of a CLIENT user.
//
// Name, email and phone are not copied here. They live on the owning User and
// are joined at read time (see ClientView), so the two can never drift apart.
type Client struct {
	ID                 ClientProfileID `bson:"_id" json:"id"`
	UserID             UserID          `bson:"user_id" json:"user_id"`
	Country            string          `bson:"country" json:"country"`
	VisaType           string          `bson:"visa_type" json:"visa_type"`
	AssignedEmployeeID *UserID         `bson:"assigned_employee_id,omitempty" json:"assigned_employee_id,omitempty"`
	CurrentStatus      string          `bson:"current_status" json:"current_status"`
	CurrentStep        int             `bson:"current_step" json:"current_step"`
	ProgressPercentage int             `bson:"progress_percentage" json:"progress_percentage"`
	CreatedAt          time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `bson:"updated_at" json:"updated_at"`
}

// ClientView is a Client joined with its owning User.
type ClientView struct {
	Client
	FullName             string `json:"full_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	AssignedEmployeeName string `json:"assigned_employee_name,omitempty"`
}

// NewClientView joins a profile with its user. employee may be nil.
func NewClientView(c Client, u *User, employee *User) ClientView {
	v := ClientView{Client: c}
	if u != nil {
		v.FullName = u.FullName
		v.Email = u.Email
		v.Phone = u.Phone
	}
	if employee != nil {
		v.AssignedEmployeeName = employee.FullName
	}
	return v
}
