package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

func updateResponse(matched int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: matched},
	)
}

func TestAdjustBalance(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("withdrawal past the balance is rejected", func(mt *mtest.T) {
		svc := &AccountService{collection: mt.Coll, logger: zap.NewNop()}
		mt.AddMockResponses(updateResponse(0))

		err := svc.AdjustBalance(context.Background(), primitive.NewObjectID().Hex(), -50)
		if err == nil || !strings.Contains(err.Error(), "insufficient funds") {
			t.Fatalf("expected insufficient funds error, got %v", err)
		}
	})

	mt.Run("credit to a missing account", func(mt *mtest.T) {
		svc := &AccountService{collection: mt.Coll, logger: zap.NewNop()}
		mt.AddMockResponses(updateResponse(0))

		err := svc.AdjustBalance(context.Background(), primitive.NewObjectID().Hex(), 50)
		if !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	mt.Run("covered withdrawal succeeds", func(mt *mtest.T) {
		svc := &AccountService{collection: mt.Coll, logger: zap.NewNop()}
		mt.AddMockResponses(updateResponse(1))

		if err := svc.AdjustBalance(context.Background(), primitive.NewObjectID().Hex(), -25); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	mt.Run("malformed account id", func(mt *mtest.T) {
		svc := &AccountService{collection: mt.Coll, logger: zap.NewNop()}

		err := svc.AdjustBalance(context.Background(), "not-an-id", 10)
		if err == nil || !strings.Contains(err.Error(), "invalid account id") {
			t.Fatalf("expected invalid id error, got %v", err)
		}
	})
}
