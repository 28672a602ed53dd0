package models

import (
	"fmt"
	"time"
)

// AccountKind classifies an account for reporting purposes.
// It is stored as an integer code.
type AccountKind int

const (
	Asset AccountKind = iota
	Liability
	Equity
	Income
	Expense
)

var kindNames = map[AccountKind]string{
	Asset:     "asset",
	Liability: "liability",
	Equity:    "equity",
	Income:    "income",
	Expense:   "expense",
}

func (k AccountKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AccountKind(%d)", int(k))
}

// Valid reports whether k is one of the defined account kinds.
func (k AccountKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseAccountKind maps a kind name ("asset", "income", ...) to its code.
func ParseAccountKind(name string) (AccountKind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown account kind %q", name)
}

type Account struct {
	ID   int64       `json:"id" db:"id"`
	Name string      `json:"name" db:"name"`
	Kind AccountKind `json:"kind" db:"kind"`
}

// Transaction is one economic event. Its postings are stored separately
// and are not expanded by list reads.
type Transaction struct {
	ID          int64  `json:"id" db:"id"`
	Payee       string `json:"payee" db:"payee"`
	Description string `json:"description" db:"description"`
}

// Posting is one leg of a double-entry transaction. Amount is in the
// smallest currency unit; the amounts of a transaction's postings sum
// to zero.
type Posting struct {
	ID          int64     `json:"id" db:"id"`
	Date        time.Time `json:"date" db:"date"`
	Amount      int64     `json:"amount" db:"amount"`
	Account     int64     `json:"account" db:"account"`
	Transaction int64     `json:"transaction" db:"transaction"`
}
