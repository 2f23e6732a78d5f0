package sepa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the SEPA API credentials are missing.
var ErrNotConfigured = errors.New("sepa: client not configured")

// Client talks to the bank's SEPA Instant Credit Transfer API. The bank owns
// the payment state machine; this client only creates payments and reads
// statuses back.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Amount is an instructed amount with its ISO 4217 currency.
type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Party identifies a debtor or creditor.
type Party struct {
	Name string `json:"name"`
}

// PartyAccount identifies a debtor or creditor account by IBAN.
type PartyAccount struct {
	IBAN     string `json:"iban"`
	Currency string `json:"currency,omitempty"`
}

// PaymentIdentification carries the end-to-end and instruction IDs.
type PaymentIdentification struct {
	EndToEndID    string `json:"endToEndId"`
	InstructionID string `json:"instructionId"`
}

// CreditTransferRequest is the payload for POST /instantSepaCreditTransfers.
type CreditTransferRequest struct {
	PurposeCode                       string                `json:"purposeCode,omitempty"`
	RequestedExecutionDate            string                `json:"requestedExecutionDate"`
	Debtor                            Party                 `json:"debtor"`
	DebtorAccount                     PartyAccount          `json:"debtorAccount"`
	PaymentIdentification             PaymentIdentification `json:"paymentIdentification"`
	InstructedAmount                  Amount                `json:"instructedAmount"`
	Creditor                          Party                 `json:"creditor"`
	CreditorAccount                   PartyAccount          `json:"creditorAccount"`
	RemittanceInformationUnstructured string                `json:"remittanceInformationUnstructured,omitempty"`
}

// CreditTransferResponse is the bank's answer to a payment creation or a
// status poll.
type CreditTransferResponse struct {
	PaymentID         string `json:"paymentId"`
	TransactionStatus string `json:"transactionStatus"`
}

// Reachability reports whether the creditor bank is reachable on the
// instant rail.
type Reachability struct {
	Reachable bool   `json:"reachable"`
	Scheme    string `json:"scheme,omitempty"`
}

func NewClient(baseURL, clientID, clientSecret string, logger *zap.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sepa-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("sepa breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		breaker:      cb,
		logger:       logger,
	}
}

// Configured reports whether base URL and credentials are present.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.clientID != "" && c.clientSecret != ""
}

// token returns a cached OAuth2 client-credentials token, requesting a new
// one when missing or expired.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth2/token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.New("sepa token error: " + string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = 300
	}

	c.accessToken = tok.AccessToken
	// renew a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

// CreateCreditTransfer submits a payment to the instant rail.
func (c *Client) CreateCreditTransfer(ctx context.Context, payment CreditTransferRequest) (*CreditTransferResponse, error) {
	var out CreditTransferResponse
	err := c.do(ctx, http.MethodPost, "/instantSepaCreditTransfers", payment, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCreditTransfer polls the current transactionStatus for a payment.
func (c *Client) GetCreditTransfer(ctx context.Context, paymentID string) (*CreditTransferResponse, error) {
	var out CreditTransferResponse
	err := c.do(ctx, http.MethodGet, "/instantSepaCreditTransfers/"+url.PathEscape(paymentID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelCreditTransfer requests cancellation of a pending payment.
func (c *Client) CancelCreditTransfer(ctx context.Context, paymentID string) (*CreditTransferResponse, error) {
	var out CreditTransferResponse
	err := c.do(ctx, http.MethodDelete, "/instantSepaCreditTransfers/"+url.PathEscape(paymentID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReachabilityStatus checks whether the creditor bank accepts instant
// transfers.
func (c *Client) ReachabilityStatus(ctx context.Context, creditorIBAN string) (*Reachability, error) {
	var out Reachability
	path := "/instantSepaCreditTransfers/reachabilityStatus?iban=" + url.QueryEscape(creditorIBAN)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		accessToken, err := c.token(ctx)
		if err != nil {
			return nil, err
		}

		var body io.Reader
		if in != nil {
			raw, err := json.Marshal(in)
			if err != nil {
				return nil, err
			}
			body = bytes.NewBuffer(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("sepa api error (%d): %s", resp.StatusCode, string(raw))
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
