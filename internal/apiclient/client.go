package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a typed client for the four read endpoints the dashboard
// aggregates. It performs no retries; a failed call is the caller's problem.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Account is the list-view shape returned by GET /api/accounts.
type Account struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	IBAN     string  `json:"iban"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

// Transaction is the list-view shape returned by GET /api/transactions.
type Transaction struct {
	TransactionID string  `json:"transaction_id"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
}

// Transfer is the list-view shape returned by GET /api/transfers.
type Transfer struct {
	ID                 string  `json:"id"`
	SourceAccount      string  `json:"source_account"`
	DestinationAccount string  `json:"destination_account"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	Status             string  `json:"status"`
}

// Balance is returned by GET /api/accounts/{id}/balance.
type Balance struct {
	AccountID string  `json:"account_id"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) GetAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.get(ctx, "/api/accounts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTransactions(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	if err := c.get(ctx, "/api/transactions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTransfers(ctx context.Context) ([]Transfer, error) {
	var out []Transfer
	if err := c.get(ctx, "/api/transfers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAccountByID(ctx context.Context, id string) (*Balance, error) {
	var out Balance
	if err := c.get(ctx, "/api/accounts/"+url.PathEscape(id)+"/balance", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.New("api error: " + resp.Status + ": " + string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
