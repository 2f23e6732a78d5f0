package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bancodev/bankdash-gobackend/internal/cache"
	"github.com/bancodev/bankdash-gobackend/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

const accountsCacheKey = "accounts"

type AccountService struct {
	collection *mongo.Collection
	cache      *cache.Cache
	logger     *zap.Logger
}

func NewAccountService(db *mongo.Database, c *cache.Cache, logger *zap.Logger) *AccountService {
	return &AccountService{
		collection: db.Collection("accounts"),
		cache:      c,
		logger:     logger,
	}
}

// EnsureIndexes creates the indexes the account queries rely on.
func (s *AccountService) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.M{"name": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"iban": 1}},
		{Keys: bson.M{"status": 1}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create account indexes: %v", err)
	}
	return nil
}

func (s *AccountService) CreateAccount(ctx context.Context, account *models.Account) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if account.Currency == "" {
		account.Currency = "EUR"
	}
	if len(account.Currency) != 3 {
		return "", errors.New("currency must be a 3-letter code")
	}
	if account.Status == "" {
		account.Status = models.AccountActive
	}
	if account.Type == "" {
		account.Type = "current_account"
	}
	account.ID = primitive.NewObjectID()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt

	result, err := s.collection.InsertOne(ctx, account)
	if err != nil {
		s.logger.Error("failed to insert account", zap.Error(err))
		return "", fmt.Errorf("failed to create account: %v", err)
	}

	s.cache.Delete(ctx, accountsCacheKey)
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetAccounts lists all accounts, newest first. The result is served from
// the read cache when available.
func (s *AccountService) GetAccounts(ctx context.Context) ([]models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if raw, err := s.cache.Get(ctx, accountsCacheKey); err == nil {
		var accounts []models.Account
		if err := json.Unmarshal([]byte(raw), &accounts); err == nil {
			return accounts, nil
		}
	}

	cur, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		s.logger.Error("failed to fetch accounts", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch accounts: %v", err)
	}

	var accounts []models.Account
	defer cur.Close(ctx)
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %v", err)
	}

	if raw, err := json.Marshal(accounts); err == nil {
		s.cache.Set(ctx, accountsCacheKey, string(raw))
	}
	return accounts, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid account id format: %v", err)
	}

	var account models.Account
	if err := s.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&account); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("failed to fetch account", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch account: %v", err)
	}

	return &account, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, id string, account *models.Account) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid account id format: %v", err)
	}

	updateFields := bson.M{
		"name":       account.Name,
		"status":     account.Status,
		"currency":   account.Currency,
		"iban":       account.IBAN,
		"type":       account.Type,
		"updated_at": time.Now(),
	}

	result := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.Account
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update account: %v", err)
	}

	s.cache.Delete(ctx, accountsCacheKey)
	s.cache.Delete(ctx, "balance:"+id)
	return &updated, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid account id format: %v", err)
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete account: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrAccountNotFound
	}

	s.cache.Delete(ctx, accountsCacheKey)
	s.cache.Delete(ctx, "balance:"+id)
	return nil
}

// GetBalance returns the current balance for an account, cached.
func (s *AccountService) GetBalance(ctx context.Context, id string) (*models.Account, error) {
	key := "balance:" + id
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var account models.Account
		if err := json.Unmarshal([]byte(raw), &account); err == nil {
			return &account, nil
		}
	}

	account, err := s.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(account); err == nil {
		s.cache.Set(ctx, key, string(raw))
	}
	return account, nil
}

// AdjustBalance applies a signed delta to an account's balance. A negative
// delta that would overdraw the account is rejected.
func (s *AccountService) AdjustBalance(ctx context.Context, id string, delta float64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid account id format: %v", err)
	}

	filter := bson.M{"_id": objID}
	if delta < 0 {
		filter["balance"] = bson.M{"$gte": -delta}
	}

	result, err := s.collection.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"balance": delta},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %v", err)
	}
	if result.MatchedCount == 0 {
		if delta < 0 {
			return errors.New("insufficient funds")
		}
		return ErrAccountNotFound
	}

	s.cache.Delete(ctx, accountsCacheKey)
	s.cache.Delete(ctx, "balance:"+id)
	return nil
}
