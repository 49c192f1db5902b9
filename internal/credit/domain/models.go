package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
)

// Status is the credit lifecycle state. ACTIVE -> VOID is the only
// transition; VOID is terminal.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusVoid   Status = "VOID"
)

// Credit is a posted standalone payment. PreviousBalance is the
// immutable snapshot of the customer balance before posting; voiding
// restores it.
type Credit struct {
	ID                   snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID           snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	PreviousBalance      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"previous_balance"`
	AmountPaidByCustomer decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount_paid_by_customer"`
	FinalBalance         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"final_balance"`
	Status               Status          `gorm:"type:text;not null;index" json:"status"`
	CreatedAt            time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Customer *customerdomain.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName sets the database table name.
func (Credit) TableName() string { return "credits" }
