package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/bancodev/bankdash-gobackend/internal/auth"
	"github.com/bancodev/bankdash-gobackend/internal/services"
)

func newUserHandlerForTest(mt *mtest.T) *UserHandler {
	manager := auth.NewManager("test-secret", time.Hour, 24*time.Hour)
	return NewUserHandler(services.NewUserService(mt.DB), manager)
}

func TestCreateUserValidation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing email answers 400", func(mt *mtest.T) {
		h := newUserHandlerForTest(mt)

		req := httptest.NewRequest(http.MethodPost, "/api/user",
			strings.NewReader(`{"fullname":"Ana Perez","password":"secret"}`))
		rr := httptest.NewRecorder()
		h.CreateUser(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), "email is required") {
			t.Errorf("unexpected body %s", rr.Body.String())
		}
	})

	mt.Run("missing password answers 400", func(mt *mtest.T) {
		h := newUserHandlerForTest(mt)

		req := httptest.NewRequest(http.MethodPost, "/api/user",
			strings.NewReader(`{"fullname":"Ana Perez","email":"ana@example.com"}`))
		rr := httptest.NewRecorder()
		h.CreateUser(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), "password is required") {
			t.Errorf("unexpected body %s", rr.Body.String())
		}
	})
}

func TestGetUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("existing user without password", func(mt *mtest.T) {
		h := newUserHandlerForTest(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bankdb.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "fullname", Value: "Ana Perez"},
			{Key: "email", Value: "ana@example.com"},
			{Key: "number", Value: "0917-555-0101"},
			{Key: "password", Value: "$2a$10$hash"},
			{Key: "created_at", Value: time.Now()},
		}))

		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodGet, "/api/user/"+id.Hex(), nil),
			map[string]string{"userID": id.Hex()})
		rr := httptest.NewRecorder()
		h.GetUser(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		body := rr.Body.String()
		if !strings.Contains(body, `"number":"0917-555-0101"`) {
			t.Errorf("expected contact number in body, got %s", body)
		}
		if strings.Contains(body, "$2a$10$hash") {
			t.Errorf("password hash leaked: %s", body)
		}
	})

	mt.Run("unknown user answers 404", func(mt *mtest.T) {
		h := newUserHandlerForTest(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bankdb.users", mtest.FirstBatch))

		id := primitive.NewObjectID().Hex()
		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodGet, "/api/user/"+id, nil),
			map[string]string{"userID": id})
		rr := httptest.NewRecorder()
		h.GetUser(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	mt.Run("malformed id answers 400", func(mt *mtest.T) {
		h := newUserHandlerForTest(mt)

		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodGet, "/api/user/nope", nil),
			map[string]string{"userID": "nope"})
		rr := httptest.NewRecorder()
		h.GetUser(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}
