package model

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

const (
	PaymentMethodGPay    = "GPay"
	PaymentMethodPhonePe = "PhonePe"
	PaymentMethodPaytm   = "Paytm"
	PaymentMethodCash    = "Cash on Registration"
)

type ContactInfo struct {
	FullName string `json:"full_name,omitempty" bson:"full_name,omitempty" validate:"omitempty,max=200"`
	Email    string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Address  string `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=500"`
}

type Payment struct {
	ID            string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventID       string       `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	UserID        string       `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	Amount        float64      `json:"amount" bson:"amount" validate:"min=0"`
	Currency      string       `json:"currency" bson:"currency" validate:"omitempty,oneof=INR USD EUR GBP"`
	Method        string       `json:"method" bson:"method" validate:"omitempty,oneof=GPay PhonePe Paytm 'Cash on Registration'"`
	Status        string       `json:"status" bson:"status" validate:"required,oneof=pending completed failed"`
	TransactionID string       `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	PaidAt        *time.Time   `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	ContactInfo   *ContactInfo `json:"contact_info,omitempty" bson:"contact_info,omitempty"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt     time.Time    `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}
