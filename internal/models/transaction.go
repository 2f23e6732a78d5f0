package models

import "time"

// Transaction represents a financial transaction document. The status
// vocabulary is the bank's ISO 20022 set (see status.go).
type Transaction struct {
	TransactionID   string    `bson:"transaction_id" json:"transaction_id"`
	Reference       string    `bson:"reference" json:"reference"`
	Type            string    `bson:"type" json:"type"` // DEPOSIT, WITHDRAWAL, TRANSFER
	SenderName      string    `bson:"sender_name" json:"sender_name"`
	SenderAccount   string    `bson:"sender_account" json:"sender_account"`
	ReceiverName    string    `bson:"receiver_name" json:"receiver_name"`
	ReceiverAccount string    `bson:"receiver_account" json:"receiver_account"`
	Amount          float64   `bson:"amount" json:"amount"`
	Currency        string    `bson:"currency" json:"currency"`
	Status          string    `bson:"status" json:"status"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}
