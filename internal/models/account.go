package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account statuses.
const (
	AccountActive = "active"
	AccountClosed = "closed"
)

// Account represents a bank account document.
type Account struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Status    string             `bson:"status" json:"status"` // active or closed
	Balance   float64            `bson:"balance" json:"balance"`
	Currency  string             `bson:"currency" json:"currency"` // ISO 4217 code
	IBAN      string             `bson:"iban" json:"iban"`
	Type      string             `bson:"type" json:"type"` // e.g. current_account
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
