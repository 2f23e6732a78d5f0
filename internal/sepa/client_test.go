package sepa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func sepaServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil || r.FormValue("grant_type") != "client_credentials" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		atomic.AddInt32(tokenCalls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/instantSepaCreditTransfers", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			http.Error(w, "missing request id", http.StatusBadRequest)
			return
		}
		var req CreditTransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(CreditTransferResponse{
			PaymentID:         "pay-1",
			TransactionStatus: "PDNG",
		})
	})
	mux.HandleFunc("/instantSepaCreditTransfers/pay-1", func(w http.ResponseWriter, r *http.Request) {
		status := "ACSP"
		if r.Method == http.MethodDelete {
			status = "CANC"
		}
		json.NewEncoder(w).Encode(CreditTransferResponse{
			PaymentID:         "pay-1",
			TransactionStatus: status,
		})
	})
	mux.HandleFunc("/instantSepaCreditTransfers/reachabilityStatus", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Reachability{Reachable: true, Scheme: "SCT Inst"})
	})
	return httptest.NewServer(mux)
}

func testRequest() CreditTransferRequest {
	return CreditTransferRequest{
		RequestedExecutionDate: "2026-01-15",
		Debtor:                 Party{Name: "MIRYA TRADING CO LIMITED"},
		DebtorAccount:          PartyAccount{IBAN: "DE86500700100925993805", Currency: "EUR"},
		PaymentIdentification:  PaymentIdentification{EndToEndID: "e2e-1", InstructionID: "instr-1"},
		InstructedAmount:       Amount{Amount: "25.00", Currency: "EUR"},
		Creditor:               Party{Name: "ZAIBATSUS.L."},
		CreditorAccount:        PartyAccount{IBAN: "ES3901821250410201520178", Currency: "EUR"},
	}
}

func TestCreateCreditTransfer(t *testing.T) {
	var tokenCalls int32
	srv := sepaServer(t, &tokenCalls)
	defer srv.Close()

	client := NewClient(srv.URL, "client-id", "client-secret", zap.NewNop())
	resp, err := client.CreateCreditTransfer(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateCreditTransfer failed: %v", err)
	}
	if resp.PaymentID != "pay-1" || resp.TransactionStatus != "PDNG" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestTokenIsCached(t *testing.T) {
	var tokenCalls int32
	srv := sepaServer(t, &tokenCalls)
	defer srv.Close()

	client := NewClient(srv.URL, "client-id", "client-secret", zap.NewNop())
	ctx := context.Background()

	if _, err := client.CreateCreditTransfer(ctx, testRequest()); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := client.GetCreditTransfer(ctx, "pay-1"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if _, err := client.ReachabilityStatus(ctx, "ES3901821250410201520178"); err != nil {
		t.Fatalf("third call failed: %v", err)
	}

	if n := atomic.LoadInt32(&tokenCalls); n != 1 {
		t.Errorf("expected 1 token request, got %d", n)
	}
}

func TestGetAndCancelCreditTransfer(t *testing.T) {
	var tokenCalls int32
	srv := sepaServer(t, &tokenCalls)
	defer srv.Close()

	client := NewClient(srv.URL, "client-id", "client-secret", zap.NewNop())
	ctx := context.Background()

	status, err := client.GetCreditTransfer(ctx, "pay-1")
	if err != nil {
		t.Fatalf("GetCreditTransfer failed: %v", err)
	}
	if status.TransactionStatus != "ACSP" {
		t.Errorf("expected ACSP, got %s", status.TransactionStatus)
	}

	cancelled, err := client.CancelCreditTransfer(ctx, "pay-1")
	if err != nil {
		t.Fatalf("CancelCreditTransfer failed: %v", err)
	}
	if cancelled.TransactionStatus != "CANC" {
		t.Errorf("expected CANC, got %s", cancelled.TransactionStatus)
	}
}

func TestNotConfigured(t *testing.T) {
	client := NewClient("", "", "", zap.NewNop())
	_, err := client.CreateCreditTransfer(context.Background(), testRequest())
	if err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestUpstreamErrorSurfacesBody(t *testing.T) {
	var tokenCalls int32
	srv := sepaServer(t, &tokenCalls)
	defer srv.Close()

	client := NewClient(srv.URL, "client-id", "client-secret", zap.NewNop())
	_, err := client.GetCreditTransfer(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown payment")
	}
}
