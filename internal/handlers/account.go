package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bancodev/bankdash-gobackend/internal/models"
	"github.com/bancodev/bankdash-gobackend/internal/services"
)

type AccountHandler struct {
	service *services.AccountService
}

func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var account models.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if account.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.service.CreateAccount(r.Context(), &account)
	if err != nil {
		if strings.Contains(err.Error(), "currency must be") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.GetAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch accounts")
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["accountID"]

	account, err := h.service.GetAccountByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		if strings.Contains(err.Error(), "invalid account id") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch account")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// GetBalance serves the balance card of the dashboard.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["accountID"]

	account, err := h.service.GetBalance(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		if strings.Contains(err.Error(), "invalid account id") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id": account.ID.Hex(),
		"balance":    account.Balance,
		"currency":   account.Currency,
	})
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["accountID"]

	var account models.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.UpdateAccount(r.Context(), id, &account)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		if strings.Contains(err.Error(), "invalid account id") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update account")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["accountID"]

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		if strings.Contains(err.Error(), "invalid account id") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
