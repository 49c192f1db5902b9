package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Customer is a billing counterparty. Balance is a signed running
// total: positive means the customer owes the business, negative means
// the business owes the customer. Only the invoice and credit posting
// engines may write it.
type Customer struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Phone     string          `gorm:"type:text;not null;uniqueIndex" json:"phone"`
	Firm      string          `gorm:"type:text" json:"firm"`
	Address   string          `gorm:"type:text" json:"address"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
