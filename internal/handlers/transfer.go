package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bancodev/bankdash-gobackend/internal/models"
	"github.com/bancodev/bankdash-gobackend/internal/sepa"
	"github.com/bancodev/bankdash-gobackend/internal/services"
)

type TransferHandler struct {
	service *services.TransferService
}

func NewTransferHandler(service *services.TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var t models.Transfer
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Idempotency-Key header wins over the body field
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		t.IdempotencyKey = key
	}

	created, err := h.service.CreateTransfer(r.Context(), &t)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "account not found"):
			writeError(w, http.StatusNotFound, msg)
		case strings.Contains(msg, "required") ||
			strings.Contains(msg, "amount must be") ||
			strings.Contains(msg, "insufficient funds") ||
			strings.Contains(msg, "invalid"):
			writeError(w, http.StatusBadRequest, msg)
		default:
			writeError(w, http.StatusInternalServerError, "failed to create transfer")
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TransferHandler) GetTransfers(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	transfers, err := h.service.GetTransfers(r.Context(), &status)
	if err != nil {
		if strings.Contains(err.Error(), "invalid") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch transfers")
		return
	}
	if transfers == nil {
		transfers = []models.Transfer{}
	}

	writeJSON(w, http.StatusOK, transfers)
}

func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transferID"]

	t, err := h.service.GetTransferByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTransferNotFound) {
			writeError(w, http.StatusNotFound, "transfer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch transfer")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// ProcessTransfer submits a stored transfer to the bank's instant rail and
// returns the transfer with the bank's payment id and status recorded.
func (h *TransferHandler) ProcessTransfer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transferID"]

	processed, err := h.service.ProcessTransfer(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransferNotFound):
			writeError(w, http.StatusNotFound, "transfer not found")
		case errors.Is(err, services.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "source account not found")
		case errors.Is(err, sepa.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "sepa api not configured")
		case strings.Contains(err.Error(), "beneficiary iban"):
			writeError(w, http.StatusBadRequest, err.Error())
		case strings.HasPrefix(err.Error(), "failed to"):
			writeError(w, http.StatusInternalServerError, "failed to process transfer")
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, processed)
}

// UpdateStatus records a bank-reported status change.
func (h *TransferHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transferID"]

	var body struct {
		Status      string `json:"status"`
		FailureCode string `json:"failure_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Status == "" {
		writeError(w, http.StatusBadRequest, "status field is required")
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, body.Status, body.FailureCode)
	if err != nil {
		if errors.Is(err, services.ErrTransferNotFound) {
			writeError(w, http.StatusNotFound, "transfer not found")
			return
		}
		if strings.Contains(err.Error(), "invalid status") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update transfer")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TransferHandler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transferID"]

	history, err := h.service.GetStatusHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch status history")
		return
	}
	if history == nil {
		history = []models.TransferStatus{}
	}

	writeJSON(w, http.StatusOK, history)
}
