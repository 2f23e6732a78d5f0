package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/bancodev/bankdash-gobackend/internal/models"
	"github.com/bancodev/bankdash-gobackend/internal/services"
)

func newTransferHandlerForTest(mt *mtest.T) *TransferHandler {
	logger := zap.NewNop()
	accounts := services.NewAccountService(mt.DB, nil, logger)
	return NewTransferHandler(services.NewTransferService(mt.DB, accounts, nil, nil, logger))
}

func TestProcessTransferEndpoint(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unknown transfer answers 404", func(mt *mtest.T) {
		h := newTransferHandlerForTest(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bankdb.transfers", mtest.FirstBatch))

		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodPost, "/api/transfers/tr-404/process", nil),
			map[string]string{"transferID": "tr-404"})
		rr := httptest.NewRecorder()
		h.ProcessTransfer(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	mt.Run("unconfigured rail answers 503", func(mt *mtest.T) {
		h := newTransferHandlerForTest(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bankdb.transfers", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "tr-1"},
			{Key: "beneficiary_iban", Value: "DE89370400440532013000"},
			{Key: "status", Value: models.StatusPending},
		}))

		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodPost, "/api/transfers/tr-1/process", nil),
			map[string]string{"transferID": "tr-1"})
		rr := httptest.NewRecorder()
		h.ProcessTransfer(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d: %s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), "not configured") {
			t.Errorf("unexpected body %s", rr.Body.String())
		}
	})

	mt.Run("missing beneficiary iban answers 400", func(mt *mtest.T) {
		h := newTransferHandlerForTest(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bankdb.transfers", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "tr-2"},
			{Key: "status", Value: models.StatusPending},
		}))

		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodPost, "/api/transfers/tr-2/process", nil),
			map[string]string{"transferID": "tr-2"})
		rr := httptest.NewRecorder()
		h.ProcessTransfer(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}
