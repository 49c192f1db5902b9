package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
)

// Status is the invoice lifecycle state. ACTIVE -> VOID is the only
// transition; VOID is terminal.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusVoid   Status = "VOID"
)

// Invoice is a posted sale. CustPrevBalance is the immutable snapshot
// of the customer balance before posting; voiding restores it.
type Invoice struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID       snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	AmountDiscount   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount_discount"`
	PercentDiscount  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"percent_discount"`
	FinalAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"final_amount"`
	CustPrevBalance  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cust_prev_balance"`
	PaidByCustomer   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid_by_customer"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"remaining_balance"`
	NumberOfCartons  int             `gorm:"not null;default:1" json:"number_of_cartons"`
	Status           Status          `gorm:"type:text;not null;index" json:"status"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items          []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	TaxItems       []TaxItem       `gorm:"foreignKey:InvoiceID" json:"tax_items,omitempty"`
	PackagingItems []PackagingItem `gorm:"foreignKey:InvoiceID" json:"packaging_items,omitempty"`
	TransportItems []TransportItem `gorm:"foreignKey:InvoiceID" json:"transport_items,omitempty"`

	Customer *customerdomain.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one product line. ProductPrice is the price snapshot
// taken at posting time.
type InvoiceItem struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	ProductID       snowflake.ID    `gorm:"not null;index" json:"product_id"`
	ProductName     string          `gorm:"type:text;not null" json:"product_name"`
	ProductPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"product_price"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	AmountDiscount  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount_discount"`
	PercentDiscount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"percent_discount"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// TaxItem is a named tax charge resolved against the discounted subtotal.
type TaxItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Percent   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"percent"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TaxItem) TableName() string { return "invoice_tax_items" }

// PackagingItem is a per-unit packaging charge, multiplied by the
// invoice carton count at totals time.
type PackagingItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PackagingItem) TableName() string { return "invoice_packaging_items" }

// TransportItem is a per-unit transportation charge, multiplied by the
// invoice carton count at totals time.
type TransportItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TransportItem) TableName() string { return "invoice_transport_items" }
