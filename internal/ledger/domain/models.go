package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EntryType discriminates history entries by source table.
type EntryType string

const (
	EntryInvoice EntryType = "invoice"
	EntryCredit  EntryType = "credit"
)

// OverviewRow is one customer line on the balance overview.
type OverviewRow struct {
	CustomerID snowflake.ID    `json:"customer_id"`
	Name       string          `json:"name"`
	Firm       string          `json:"firm,omitempty"`
	Phone      string          `json:"phone"`
	Balance    decimal.Decimal `json:"balance"`
}

// Overview summarizes every customer carrying a non-zero balance.
// TotalOwed sums positive balances only; negative balances are money
// the business owes and do not offset it.
type Overview struct {
	Rows          []OverviewRow   `json:"rows"`
	TotalOwed     decimal.Decimal `json:"total_owed"`
	CustomerCount int             `json:"customer_count"`
}

// HistoryEntry is one transaction in a customer's unified history.
type HistoryEntry struct {
	Type            EntryType       `json:"type"`
	ID              snowflake.ID    `json:"id"`
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Paid            decimal.Decimal `json:"paid"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Status          string          `json:"status"`
}

// History is the merged invoice and credit timeline for one customer,
// newest first.
type History struct {
	CustomerID    snowflake.ID    `json:"customer_id"`
	Entries       []HistoryEntry  `json:"entries"`
	TotalInvoices int             `json:"total_invoices"`
	TotalCredits  int             `json:"total_credits"`
	Balance       decimal.Decimal `json:"balance"`
}
