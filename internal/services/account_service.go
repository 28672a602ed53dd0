package services

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/acerempel/monies/internal/executor"
	"github.com/acerempel/monies/internal/ledger"
	"github.com/acerempel/monies/internal/models"
)

// AccountService covers the administrative account surface: accounts
// must exist before transactions can post to them.
type AccountService struct {
	repo      *ledger.Repository
	exec      *executor.Executor
	validator *ValidationHelper
}

func NewAccountService(repo *ledger.Repository, exec *executor.Executor) *AccountService {
	return &AccountService{
		repo:      repo,
		exec:      exec,
		validator: NewValidationHelper(),
	}
}

type createAccountRequest struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=asset liability equity income expense"`
}

type createAccountResponse struct {
	ID int64 `json:"id"`
}

type renameAccountRequest struct {
	Name string `json:"name" validate:"required"`
}

type balanceResponse struct {
	Account int64 `json:"account"`
	Balance int64 `json:"balance"`
}

// CreateAccount handles POST /accounts/new.
func (as *AccountService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusUnprocessableEntity, err)
		return
	}

	kind, err := models.ParseAccountKind(req.Kind)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	id, err := executor.Call(r.Context(), as.exec, func() (int64, error) {
		return as.repo.CreateAccount(r.Context(), req.Name, kind)
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}
	SendJSONResponse(w, http.StatusCreated, createAccountResponse{ID: id})
}

// ListAccounts handles GET /accounts/list.
func (as *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := executor.Call(r.Context(), as.exec, func() ([]models.Account, error) {
		return as.repo.ListAccounts(r.Context())
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}
	SendJSONResponse(w, http.StatusOK, accounts)
}

// GetBalance handles GET /accounts/{accountID}/balance. The balance is
// recomputed from postings on every call.
func (as *AccountService) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	balance, err := executor.Call(r.Context(), as.exec, func() (int64, error) {
		return as.repo.GetAccountBalance(r.Context(), id)
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}
	SendJSONResponse(w, http.StatusOK, balanceResponse{Account: id, Balance: balance})
}

// RenameAccount handles PUT /accounts/{accountID}/name.
func (as *AccountService) RenameAccount(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	var req renameAccountRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusUnprocessableEntity, err)
		return
	}

	err = as.exec.Do(r.Context(), func() error {
		return as.repo.RenameAccount(r.Context(), id, req.Name)
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}

	account, err := executor.Call(r.Context(), as.exec, func() (*models.Account, error) {
		return as.repo.GetAccount(r.Context(), id)
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}
	SendJSONResponse(w, http.StatusOK, account)
}

func accountID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
}
