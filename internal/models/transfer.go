package models

import "time"

// Transfer represents an outgoing money transfer. The idempotency key
// ensures the transfer is processed exactly once.
type Transfer struct {
	ID                 string    `bson:"_id,omitempty" json:"id"`
	Reference          string    `bson:"reference" json:"reference"`
	IdempotencyKey     string    `bson:"idempotency_key" json:"idempotency_key"`
	SourceAccount      string    `bson:"source_account" json:"source_account"`
	DestinationAccount string    `bson:"destination_account" json:"destination_account"`
	BeneficiaryIBAN    string    `bson:"beneficiary_iban" json:"beneficiary_iban"`
	Amount             float64   `bson:"amount" json:"amount"`
	Currency           string    `bson:"currency" json:"currency"`
	TransferType       string    `bson:"transfer_type" json:"transfer_type"` // standard or instant
	Status             string    `bson:"status" json:"status"`
	FailureCode        string    `bson:"failure_code,omitempty" json:"failure_code,omitempty"`
	PaymentID          string    `bson:"payment_id,omitempty" json:"payment_id,omitempty"` // bank payment id, set once submitted
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}

// TransferStatus is one entry in a transfer's status history.
type TransferStatus struct {
	TransferID string    `bson:"transfer_id" json:"transfer_id"`
	Status     string    `bson:"status" json:"status"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}
