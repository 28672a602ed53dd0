package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_CreateAccount(t *testing.T) {
	r := newTestRouter(t)

	t.Run("valid account", func(t *testing.T) {
		id := createAccount(t, r, "Cash", "asset")
		assert.Greater(t, id, int64(0))
	})

	t.Run("missing name", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/accounts/new", map[string]any{"kind": "asset"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/accounts/new", map[string]any{"name": "Cash", "kind": "slush"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAccountService_ListAccounts(t *testing.T) {
	r := newTestRouter(t)
	cash := createAccount(t, r, "Cash", "asset")
	loan := createAccount(t, r, "Loan", "liability")

	w := doJSON(t, r, "GET", "/accounts/list", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var accounts []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, cash, accounts[0].ID)
	assert.Equal(t, "Cash", accounts[0].Name)
	assert.Equal(t, loan, accounts[1].ID)
}

func TestAccountService_GetBalance(t *testing.T) {
	r := newTestRouter(t)
	cash := createAccount(t, r, "Cash", "asset")

	t.Run("no postings yet", func(t *testing.T) {
		w := doJSON(t, r, "GET", fmt.Sprintf("/accounts/%d/balance", cash), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var bal struct {
			Balance int64 `json:"balance"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
		assert.Zero(t, bal.Balance)
	})

	t.Run("unknown account", func(t *testing.T) {
		w := doJSON(t, r, "GET", "/accounts/999/balance", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := doJSON(t, r, "GET", "/accounts/abc/balance", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountService_RenameAccount(t *testing.T) {
	r := newTestRouter(t)
	cash := createAccount(t, r, "Cash", "asset")

	t.Run("successful rename", func(t *testing.T) {
		w := doJSON(t, r, "PUT", fmt.Sprintf("/accounts/%d/name", cash),
			map[string]any{"name": "Petty Cash"})
		require.Equal(t, http.StatusOK, w.Code)

		var account struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
		assert.Equal(t, "Petty Cash", account.Name)
	})

	t.Run("unknown account", func(t *testing.T) {
		w := doJSON(t, r, "PUT", "/accounts/999/name", map[string]any{"name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty name", func(t *testing.T) {
		w := doJSON(t, r, "PUT", fmt.Sprintf("/accounts/%d/name", cash), map[string]any{"name": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
