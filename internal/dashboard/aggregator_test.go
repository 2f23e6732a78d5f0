package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/bancodev/bankdash-gobackend/internal/apiclient"
)

// cardServer serves the four dashboard endpoints; endpoints named in fail
// answer 500 instead.
func cardServer(fail map[string]bool) *httptest.Server {
	mux := http.NewServeMux()
	register := func(path, payload string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if fail[path] {
				http.Error(w, `{"error":"upstream down"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(payload))
		})
	}
	register("/api/accounts", `[{"id":"a1","name":"Main","balance":1500.5,"currency":"EUR","status":"active"}]`)
	register("/api/transactions", `[{"transaction_id":"t1","type":"DEPOSIT","amount":10,"currency":"EUR","status":"ACCP"}]`)
	register("/api/transfers", `[{"id":"tr1","source_account":"A","destination_account":"B","amount":25,"currency":"EUR","status":"PDNG"}]`)
	register("/api/accounts/a1/balance", `{"account_id":"a1","balance":12.5,"currency":"EUR"}`)
	return httptest.NewServer(mux)
}

func newAggregator(baseURL string) *Aggregator {
	return NewAggregator(apiclient.New(baseURL), zap.NewNop())
}

func TestLoadAllCards(t *testing.T) {
	srv := cardServer(nil)
	defer srv.Close()

	data := newAggregator(srv.URL).Load(context.Background(), "a1")

	if data.Accounts.Err || len(data.Accounts.Lines) != 1 {
		t.Errorf("unexpected accounts card %+v", data.Accounts)
	}
	if data.Transactions.Err || len(data.Transactions.Lines) != 1 {
		t.Fatalf("unexpected transactions card %+v", data.Transactions)
	}
	if data.Transactions.Lines[0] != "DEPOSIT: $10" {
		t.Errorf("expected %q, got %q", "DEPOSIT: $10", data.Transactions.Lines[0])
	}
	if data.Transfers.Err || len(data.Transfers.Lines) != 1 {
		t.Errorf("unexpected transfers card %+v", data.Transfers)
	}
	if data.Balance.Err || len(data.Balance.Lines) != 1 {
		t.Fatalf("unexpected balance card %+v", data.Balance)
	}
	if data.Balance.Lines[0] != "$12.50" {
		t.Errorf("expected %q, got %q", "$12.50", data.Balance.Lines[0])
	}
}

func TestOneFailureDoesNotAffectOtherCards(t *testing.T) {
	srv := cardServer(map[string]bool{"/api/transactions": true})
	defer srv.Close()

	data := newAggregator(srv.URL).Load(context.Background(), "a1")

	if !data.Transactions.Err {
		t.Error("expected transactions card to be marked failed")
	}
	if len(data.Transactions.Lines) != 1 || data.Transactions.Lines[0] != ErrLoadingData {
		t.Errorf("expected %q, got %v", ErrLoadingData, data.Transactions.Lines)
	}

	for name, card := range map[string]Card{
		"accounts":  data.Accounts,
		"transfers": data.Transfers,
		"balance":   data.Balance,
	} {
		if card.Err {
			t.Errorf("%s card unexpectedly failed: %+v", name, card)
		}
		for _, line := range card.Lines {
			if line == ErrLoadingData {
				t.Errorf("%s card shows the error string", name)
			}
		}
	}
}

func TestAllFetchesFailIndependently(t *testing.T) {
	srv := cardServer(map[string]bool{
		"/api/accounts":            true,
		"/api/transactions":        true,
		"/api/transfers":           true,
		"/api/accounts/a1/balance": true,
	})
	defer srv.Close()

	data := newAggregator(srv.URL).Load(context.Background(), "a1")

	for name, card := range map[string]Card{
		"accounts":     data.Accounts,
		"transactions": data.Transactions,
		"transfers":    data.Transfers,
		"balance":      data.Balance,
	} {
		if !card.Err {
			t.Errorf("%s card should have failed", name)
		}
		if len(card.Lines) != 1 || card.Lines[0] != ErrLoadingData {
			t.Errorf("%s card lines = %v", name, card.Lines)
		}
	}
}

func TestBalanceCardEmptyWithoutAccount(t *testing.T) {
	srv := cardServer(nil)
	defer srv.Close()

	data := newAggregator(srv.URL).Load(context.Background(), "")

	if data.Balance.Err {
		t.Error("balance card should not be an error when no account is selected")
	}
	if len(data.Balance.Lines) != 0 {
		t.Errorf("expected empty balance card, got %v", data.Balance.Lines)
	}
}
