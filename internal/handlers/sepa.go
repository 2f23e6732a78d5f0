package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bancodev/bankdash-gobackend/internal/sepa"
)

// SepaHandler proxies the bank's SEPA Instant Credit Transfer API. The rail
// itself is consumed, never implemented here.
type SepaHandler struct {
	client *sepa.Client
}

func NewSepaHandler(client *sepa.Client) *SepaHandler {
	return &SepaHandler{client: client}
}

func (h *SepaHandler) ReachabilityStatus(w http.ResponseWriter, r *http.Request) {
	iban := r.URL.Query().Get("iban")
	if iban == "" {
		writeError(w, http.StatusBadRequest, "iban query parameter is required")
		return
	}

	reachability, err := h.client.ReachabilityStatus(r.Context(), iban)
	if err != nil {
		h.upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reachability)
}

func (h *SepaHandler) CreateCreditTransfer(w http.ResponseWriter, r *http.Request) {
	var req sepa.CreditTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Debtor.Name == "" || req.DebtorAccount.IBAN == "" ||
		req.Creditor.Name == "" || req.CreditorAccount.IBAN == "" {
		writeError(w, http.StatusBadRequest, "debtor and creditor details are required")
		return
	}

	resp, err := h.client.CreateCreditTransfer(r.Context(), req)
	if err != nil {
		h.upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *SepaHandler) GetCreditTransfer(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["paymentID"]

	resp, err := h.client.GetCreditTransfer(r.Context(), paymentID)
	if err != nil {
		h.upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SepaHandler) CancelCreditTransfer(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["paymentID"]

	resp, err := h.client.CancelCreditTransfer(r.Context(), paymentID)
	if err != nil {
		h.upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SepaHandler) upstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, sepa.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "sepa api not configured")
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
