package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bancodev/bankdash-gobackend/internal/events"
	"github.com/bancodev/bankdash-gobackend/internal/models"
	"github.com/bancodev/bankdash-gobackend/internal/sepa"
)

var ErrTransferNotFound = errors.New("transfer not found")

// PaymentRail is the part of the bank client the transfer service uses to
// submit payments and read their statuses back.
type PaymentRail interface {
	CreateCreditTransfer(ctx context.Context, payment sepa.CreditTransferRequest) (*sepa.CreditTransferResponse, error)
	GetCreditTransfer(ctx context.Context, paymentID string) (*sepa.CreditTransferResponse, error)
}

type TransferService struct {
	collection *mongo.Collection
	statuses   *mongo.Collection
	accounts   *AccountService
	rail       PaymentRail
	publisher  *events.Publisher
	logger     *zap.Logger
}

func NewTransferService(db *mongo.Database, accounts *AccountService, rail PaymentRail, publisher *events.Publisher, logger *zap.Logger) *TransferService {
	return &TransferService{
		collection: db.Collection("transfers"),
		statuses:   db.Collection("transfer_status"),
		accounts:   accounts,
		rail:       rail,
		publisher:  publisher,
		logger:     logger,
	}
}

// EnsureIndexes creates the indexes the transfer queries rely on.
func (s *TransferService) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.M{"idempotency_key": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"status": 1, "created_at": -1}},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create transfer indexes: %v", err)
	}
	statusIndexes := []mongo.IndexModel{
		{Keys: bson.M{"transfer_id": 1, "timestamp": -1}},
	}
	if _, err := s.statuses.Indexes().CreateMany(ctx, statusIndexes); err != nil {
		return fmt.Errorf("failed to create transfer status indexes: %v", err)
	}
	return nil
}

// CreateTransfer debits the source account, credits the destination when it
// is one of our own accounts, and records the transfer. A transfer carrying
// a beneficiary IBAN leaves the bank over the rail, so only the debit
// applies locally. When a transfer with the same idempotency key already
// exists, the existing record is returned and no money moves again. Every
// new transfer gets an initial PDNG status history entry.
func (s *TransferService) CreateTransfer(ctx context.Context, t *models.Transfer) (*models.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if t.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if t.SourceAccount == "" || t.DestinationAccount == "" {
		return nil, errors.New("source and destination accounts are required")
	}
	if t.Currency == "" {
		t.Currency = "EUR"
	}
	if t.TransferType == "" {
		t.TransferType = models.TransferStandard
	}
	if !models.IsValidTransferType(t.TransferType) {
		return nil, fmt.Errorf("invalid transfer type %q", t.TransferType)
	}
	if t.IdempotencyKey == "" {
		t.IdempotencyKey = uuid.NewString()
	}

	var existing models.Transfer
	err := s.collection.FindOne(ctx, bson.M{"idempotency_key": t.IdempotencyKey}).Decode(&existing)
	if err == nil {
		s.logger.Info("transfer already processed",
			zap.String("idempotency_key", t.IdempotencyKey),
			zap.String("id", existing.ID))
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check idempotency key: %v", err)
	}

	if err := s.moveFunds(ctx, t); err != nil {
		return nil, err
	}

	t.ID = uuid.NewString()
	t.Reference = uuid.NewString()
	t.Status = models.StatusPending
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt

	if _, err := s.collection.InsertOne(ctx, t); err != nil {
		s.reverseFunds(ctx, t)
		if mongo.IsDuplicateKeyError(err) {
			// lost the race to a concurrent request with the same key
			if err := s.collection.FindOne(ctx, bson.M{"idempotency_key": t.IdempotencyKey}).Decode(&existing); err == nil {
				return &existing, nil
			}
		}
		s.logger.Error("failed to insert transfer", zap.Error(err))
		return nil, fmt.Errorf("failed to create transfer: %v", err)
	}

	s.recordStatus(ctx, t.ID, models.StatusPending)
	s.publisher.Publish(ctx, events.StatusEvent{
		Entity:    "transfer",
		EntityID:  t.ID,
		NewStatus: models.StatusPending,
	})
	return t, nil
}

// ProcessTransfer submits a stored transfer to the bank's instant rail and
// records the status the bank answered with. A transfer that already carries
// a bank payment id is returned as is, so submitting twice is harmless.
func (s *TransferService) ProcessTransfer(ctx context.Context, transferID string) (*models.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	t, err := s.GetTransferByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t.PaymentID != "" {
		s.logger.Info("transfer already submitted to the bank",
			zap.String("id", t.ID),
			zap.String("payment_id", t.PaymentID))
		return t, nil
	}
	if t.BeneficiaryIBAN == "" {
		return nil, errors.New("transfer has no beneficiary iban")
	}
	if s.rail == nil {
		return nil, sepa.ErrNotConfigured
	}

	source, err := s.accounts.GetAccountByID(ctx, t.SourceAccount)
	if err != nil {
		if err == ErrAccountNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch source account: %v", err)
	}

	payment := sepa.CreditTransferRequest{
		RequestedExecutionDate: time.Now().Format("2006-01-02"),
		Debtor:                 sepa.Party{Name: source.Name},
		DebtorAccount:          sepa.PartyAccount{IBAN: source.IBAN, Currency: source.Currency},
		PaymentIdentification: sepa.PaymentIdentification{
			EndToEndID:    t.Reference,
			InstructionID: t.ID,
		},
		InstructedAmount: sepa.Amount{
			Amount:   strconv.FormatFloat(t.Amount, 'f', 2, 64),
			Currency: t.Currency,
		},
		Creditor:        sepa.Party{Name: t.DestinationAccount},
		CreditorAccount: sepa.PartyAccount{IBAN: t.BeneficiaryIBAN, Currency: t.Currency},
	}

	resp, err := s.rail.CreateCreditTransfer(ctx, payment)
	if err != nil {
		s.logger.Error("failed to submit transfer to the bank",
			zap.String("id", t.ID),
			zap.Error(err))
		return nil, err
	}

	status := resp.TransactionStatus
	if !models.IsValidStatus(status) {
		status = models.StatusAccepted
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": t.ID},
		bson.M{"$set": bson.M{
			"payment_id": resp.PaymentID,
			"status":     status,
			"updated_at": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.Transfer
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to store bank payment id: %v", err)
	}

	s.recordStatus(ctx, t.ID, status)
	if status != t.Status {
		s.publisher.Publish(ctx, events.StatusEvent{
			Entity:    "transfer",
			EntityID:  t.ID,
			OldStatus: t.Status,
			NewStatus: status,
		})
	}
	return &updated, nil
}

// UpdateStatus records a bank-reported status for a transfer: it appends to
// the status history, updates the transfer document, and publishes a status
// event. Transition legality is not checked; the bank owns the state
// machine.
func (s *TransferService) UpdateStatus(ctx context.Context, transferID, status, failureCode string) (*models.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !models.IsValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	var existing models.Transfer
	if err := s.collection.FindOne(ctx, bson.M{"_id": transferID}).Decode(&existing); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to fetch transfer: %v", err)
	}

	updateFields := bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}
	if failureCode != "" {
		updateFields["failure_code"] = failureCode
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": transferID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.Transfer
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to update transfer status: %v", err)
	}

	s.recordStatus(ctx, transferID, status)
	if status != existing.Status {
		s.publisher.Publish(ctx, events.StatusEvent{
			Entity:    "transfer",
			EntityID:  transferID,
			OldStatus: existing.Status,
			NewStatus: status,
		})
	}
	return &updated, nil
}

// PollPendingStatuses asks the bank for the current status of every pending
// transfer that has already been submitted, and applies whatever changed. It
// returns the number of transfers that moved to a new status. Per-transfer
// failures are logged and skipped so one bad payment never blocks the rest.
func (s *TransferService) PollPendingStatuses(ctx context.Context) (int, error) {
	if s.rail == nil {
		return 0, sepa.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cur, err := s.collection.Find(ctx, bson.M{
		"status":     models.StatusPending,
		"payment_id": bson.M{"$exists": true, "$ne": ""},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending transfers: %v", err)
	}

	var pending []models.Transfer
	defer cur.Close(ctx)
	if err := cur.All(ctx, &pending); err != nil {
		return 0, fmt.Errorf("failed to decode pending transfers: %v", err)
	}

	changed := 0
	for _, t := range pending {
		resp, err := s.rail.GetCreditTransfer(ctx, t.PaymentID)
		if err != nil {
			s.logger.Error("failed to poll transfer status",
				zap.String("id", t.ID),
				zap.String("payment_id", t.PaymentID),
				zap.Error(err))
			continue
		}
		if resp.TransactionStatus == "" || resp.TransactionStatus == t.Status {
			continue
		}
		if _, err := s.UpdateStatus(ctx, t.ID, resp.TransactionStatus, ""); err != nil {
			s.logger.Error("failed to apply polled status",
				zap.String("id", t.ID),
				zap.String("status", resp.TransactionStatus),
				zap.Error(err))
			continue
		}
		changed++
	}
	return changed, nil
}

func (s *TransferService) GetTransfers(ctx context.Context, statusFilter *string) ([]models.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if statusFilter != nil && *statusFilter != "" {
		if !models.IsValidStatus(*statusFilter) {
			return nil, fmt.Errorf("invalid status filter %q", *statusFilter)
		}
		query["status"] = *statusFilter
	}

	cur, err := s.collection.Find(ctx, query, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		s.logger.Error("failed to fetch transfers", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch transfers: %v", err)
	}

	var transfers []models.Transfer
	defer cur.Close(ctx)
	if err := cur.All(ctx, &transfers); err != nil {
		return nil, fmt.Errorf("failed to decode transfers: %v", err)
	}

	return transfers, nil
}

func (s *TransferService) GetTransferByID(ctx context.Context, id string) (*models.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var t models.Transfer
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to fetch transfer: %v", err)
	}

	return &t, nil
}

// GetStatusHistory returns the recorded statuses for a transfer, newest
// first.
func (s *TransferService) GetStatusHistory(ctx context.Context, transferID string) ([]models.TransferStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := s.statuses.Find(ctx,
		bson.M{"transfer_id": transferID},
		options.Find().SetSort(bson.M{"timestamp": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status history: %v", err)
	}

	var history []models.TransferStatus
	defer cur.Close(ctx)
	if err := cur.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("failed to decode status history: %v", err)
	}

	return history, nil
}

// moveFunds debits the source account and credits the destination. Transfers
// with a beneficiary IBAN go to an external account, so only the debit
// applies. When an internal credit fails the debit is reversed so no money
// is lost.
func (s *TransferService) moveFunds(ctx context.Context, t *models.Transfer) error {
	if err := s.accounts.AdjustBalance(ctx, t.SourceAccount, -t.Amount); err != nil {
		return fmt.Errorf("failed to debit source account: %v", err)
	}
	if t.BeneficiaryIBAN != "" {
		return nil
	}
	if err := s.accounts.AdjustBalance(ctx, t.DestinationAccount, t.Amount); err != nil {
		if refundErr := s.accounts.AdjustBalance(ctx, t.SourceAccount, t.Amount); refundErr != nil {
			s.logger.Error("failed to refund source account after credit failure",
				zap.String("account", t.SourceAccount),
				zap.Error(refundErr))
		}
		return fmt.Errorf("failed to credit destination account: %v", err)
	}
	return nil
}

// reverseFunds undoes a completed moveFunds. Failures are logged, not
// returned: the caller is already on an error path.
func (s *TransferService) reverseFunds(ctx context.Context, t *models.Transfer) {
	if err := s.accounts.AdjustBalance(ctx, t.SourceAccount, t.Amount); err != nil {
		s.logger.Error("failed to reverse source debit",
			zap.String("account", t.SourceAccount),
			zap.Error(err))
	}
	if t.BeneficiaryIBAN != "" {
		return
	}
	if err := s.accounts.AdjustBalance(ctx, t.DestinationAccount, -t.Amount); err != nil {
		s.logger.Error("failed to reverse destination credit",
			zap.String("account", t.DestinationAccount),
			zap.Error(err))
	}
}

// recordStatus appends a status history entry. Failures are logged, not
// returned: history must never fail the main write.
func (s *TransferService) recordStatus(ctx context.Context, transferID, status string) {
	_, err := s.statuses.InsertOne(ctx, models.TransferStatus{
		TransferID: transferID,
		Status:     status,
		Timestamp:  time.Now(),
	})
	if err != nil {
		s.logger.Error("failed to record transfer status",
			zap.String("transfer_id", transferID),
			zap.String("status", status),
			zap.Error(err))
	}
}
