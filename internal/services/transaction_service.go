package services

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acerempel/monies/internal/executor"
	"github.com/acerempel/monies/internal/ledger"
	"github.com/acerempel/monies/internal/models"
)

const maxRequestBytes = 1_048_576 // 1 MB

type TransactionService struct {
	repo      *ledger.Repository
	exec      *executor.Executor
	validator *ValidationHelper
}

func NewTransactionService(repo *ledger.Repository, exec *executor.Executor) *TransactionService {
	return &TransactionService{
		repo:      repo,
		exec:      exec,
		validator: NewValidationHelper(),
	}
}

type postingRequest struct {
	Account int64  `json:"account" validate:"required,gt=0"`
	Amount  int64  `json:"amount"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

type createTransactionRequest struct {
	Payee       string           `json:"payee"`
	Description string           `json:"description"`
	Postings    []postingRequest `json:"postings" validate:"required,min=2,dive"`
}

type createTransactionResponse struct {
	ID int64 `json:"id"`
}

// ListTransactions handles GET /transactions/list.
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := executor.Call(r.Context(), ts.exec, func() ([]models.Transaction, error) {
		return ts.repo.ListTransactions(r.Context())
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}
	SendJSONResponse(w, http.StatusOK, txns)
}

// CreateTransaction handles POST /transactions/new. The body carries the
// payee, description, and a balanced set of at least two postings; the
// transaction and its postings are persisted as one atomic unit.
func (ts *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusUnprocessableEntity, err)
		return
	}

	postings := make([]ledger.PostingInput, len(req.Postings))
	for i, p := range req.Postings {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			SendErrorResponse(w, "Invalid posting date", http.StatusUnprocessableEntity, nil)
			return
		}
		postings[i] = ledger.PostingInput{AccountID: p.Account, Amount: p.Amount, Date: date}
	}

	id, err := executor.Call(r.Context(), ts.exec, func() (int64, error) {
		return ts.repo.CreateTransaction(r.Context(), req.Payee, req.Description, postings)
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}
	SendJSONResponse(w, http.StatusCreated, createTransactionResponse{ID: id})
}

// GetTransaction handles GET /transactions/{transactionID}, returning
// the transaction with its postings expanded.
func (ts *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid transaction id", http.StatusBadRequest, nil)
		return
	}

	detail, err := executor.Call(r.Context(), ts.exec, func() (*ledger.TransactionDetail, error) {
		return ts.repo.GetTransaction(r.Context(), id)
	})
	if err != nil {
		SendDomainError(w, err)
		return
	}
	SendJSONResponse(w, http.StatusOK, detail)
}
