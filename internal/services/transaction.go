package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bancodev/bankdash-gobackend/internal/events"
	"github.com/bancodev/bankdash-gobackend/internal/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionService struct {
	collection *mongo.Collection
	publisher  *events.Publisher
	logger     *zap.Logger
}

func NewTransactionService(db *mongo.Database, publisher *events.Publisher, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		collection: db.Collection("transactions"),
		publisher:  publisher,
		logger:     logger,
	}
}

// EnsureIndexes creates the indexes the transaction queries rely on.
// transaction_id is unique; the external backend also enforces it, but the
// index keeps local writes honest.
func (s *TransactionService) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.M{"transaction_id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"status": 1, "created_at": -1}},
		{Keys: bson.M{"sender_account": 1, "created_at": -1}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		s.logger.Error("failed to create transaction indexes", zap.Error(err))
		return fmt.Errorf("failed to create indexes: %v", err)
	}
	return nil
}

func (s *TransactionService) CreateTransaction(ctx context.Context, t *models.Transaction) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if t.TransactionID == "" {
		t.TransactionID = uuid.NewString()
	}
	if t.Currency == "" {
		t.Currency = "EUR"
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if !models.IsValidStatus(t.Status) {
		return "", fmt.Errorf("invalid status %q", t.Status)
	}
	if t.Type == "" {
		return "", errors.New("type is required")
	}
	if !models.IsValidTransactionType(t.Type) {
		return "", fmt.Errorf("invalid type %q", t.Type)
	}
	if t.Amount <= 0 {
		return "", errors.New("amount must be positive")
	}
	t.Reference = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt

	if _, err := s.collection.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("transaction %s already exists", t.TransactionID)
		}
		s.logger.Error("failed to insert transaction", zap.Error(err))
		return "", fmt.Errorf("failed to create transaction: %v", err)
	}

	s.publisher.Publish(ctx, events.StatusEvent{
		Entity:    "transaction",
		EntityID:  t.TransactionID,
		NewStatus: t.Status,
	})
	return t.TransactionID, nil
}

// GetTransactions lists transactions with optional status and date-range
// filters, newest first.
func (s *TransactionService) GetTransactions(ctx context.Context, statusFilter, startDate, endDate *string) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}

	if statusFilter != nil && *statusFilter != "" {
		if !models.IsValidStatus(*statusFilter) {
			return nil, fmt.Errorf("invalid status filter %q", *statusFilter)
		}
		query["status"] = *statusFilter
	}

	if startDate != nil && *startDate != "" && endDate != nil && *endDate != "" {
		start, err := time.Parse(time.RFC3339, *startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date format: %v", err)
		}
		end, err := time.Parse(time.RFC3339, *endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date format: %v", err)
		}
		query["created_at"] = bson.M{
			"$gte": start,
			"$lte": end,
		}
	}

	cur, err := s.collection.Find(ctx, query, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		s.logger.Error("failed to fetch transactions", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch transactions: %v", err)
	}

	var transactions []models.Transaction
	defer cur.Close(ctx)
	if err := cur.All(ctx, &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %v", err)
	}

	return transactions, nil
}

func (s *TransactionService) GetTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var t models.Transaction
	if err := s.collection.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTransactionNotFound
		}
		s.logger.Error("failed to fetch transaction", zap.String("transaction_id", transactionID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch transaction: %v", err)
	}

	return &t, nil
}

// UpdateTransaction replaces the mutable fields of a transaction. A status
// change is recorded as an event; transition legality is the bank's concern,
// not ours.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, t *models.Transaction) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if t.Status != "" && !models.IsValidStatus(t.Status) {
		return nil, fmt.Errorf("invalid status %q", t.Status)
	}
	if t.Type != "" && !models.IsValidTransactionType(t.Type) {
		return nil, fmt.Errorf("invalid type %q", t.Type)
	}

	existing, err := s.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	updateFields := bson.M{
		"sender_name":      t.SenderName,
		"sender_account":   t.SenderAccount,
		"receiver_name":    t.ReceiverName,
		"receiver_account": t.ReceiverAccount,
		"amount":           t.Amount,
		"currency":         t.Currency,
		"updated_at":       time.Now(),
	}
	if t.Type != "" {
		updateFields["type"] = t.Type
	}
	if t.Status != "" {
		updateFields["status"] = t.Status
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"transaction_id": transactionID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.Transaction
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to update transaction: %v", err)
	}

	if t.Status != "" && t.Status != existing.Status {
		s.publisher.Publish(ctx, events.StatusEvent{
			Entity:    "transaction",
			EntityID:  transactionID,
			OldStatus: existing.Status,
			NewStatus: t.Status,
		})
	}
	return &updated, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.collection.DeleteOne(ctx, bson.M{"transaction_id": transactionID})
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrTransactionNotFound
	}
	return nil
}
