package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/billbook/internal/ledger/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func d(value string) decimal.Decimal {
	out, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return out
}

func newFixture(t *testing.T) (ledgerdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(
		&customerdomain.Customer{},
		&invoicedomain.Invoice{},
		&creditdomain.Credit{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := NewService(ServiceParam{DB: conn, Log: zap.NewNop()})
	return svc, conn, node
}

func seedCustomer(t *testing.T, conn *gorm.DB, node *snowflake.Node, name, phone, balance string) customerdomain.Customer {
	t.Helper()
	customer := customerdomain.Customer{
		ID:      node.Generate(),
		Name:    name,
		Phone:   phone,
		Balance: d(balance),
	}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func TestOverviewSumsPositiveBalancesOnly(t *testing.T) {
	svc, conn, node := newFixture(t)

	seedCustomer(t, conn, node, "Owes Much", "+919800000010", "700")
	seedCustomer(t, conn, node, "Owes Little", "+919800000011", "100")
	seedCustomer(t, conn, node, "In Credit", "+919800000012", "-250")
	seedCustomer(t, conn, node, "Settled", "+919800000013", "0")

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if overview.CustomerCount != 3 {
		t.Errorf("expected 3 non-zero customers, got %d", overview.CustomerCount)
	}
	if !overview.TotalOwed.Equal(d("800")) {
		t.Errorf("total owed must sum positive balances only, expected 800, got %s", overview.TotalOwed)
	}
	if len(overview.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(overview.Rows))
	}
	if !overview.Rows[0].Balance.Equal(d("700")) {
		t.Errorf("rows must be sorted by balance descending, got first %s", overview.Rows[0].Balance)
	}
	if !overview.Rows[2].Balance.Equal(d("-250")) {
		t.Errorf("negative balances still listed, got last %s", overview.Rows[2].Balance)
	}
}

func TestOverviewEmptyLedger(t *testing.T) {
	svc, _, _ := newFixture(t)

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.CustomerCount != 0 || len(overview.Rows) != 0 {
		t.Errorf("expected empty overview, got %d rows", len(overview.Rows))
	}
	if !overview.TotalOwed.IsZero() {
		t.Errorf("expected zero total owed, got %s", overview.TotalOwed)
	}
}

func TestCustomerHistoryMergesNewestFirst(t *testing.T) {
	svc, conn, node := newFixture(t)
	customer := seedCustomer(t, conn, node, "Ravi Traders", "+919800000014", "400")

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	invoice := invoicedomain.Invoice{
		ID:               node.Generate(),
		CustomerID:       customer.ID,
		TotalAmount:      d("1000"),
		FinalAmount:      d("1000"),
		CustPrevBalance:  d("200"),
		PaidByCustomer:   d("500"),
		RemainingBalance: d("700"),
		NumberOfCartons:  1,
		Status:           invoicedomain.StatusActive,
		CreatedAt:        base,
		UpdatedAt:        base,
	}
	if err := conn.Create(&invoice).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	credit := creditdomain.Credit{
		ID:                   node.Generate(),
		CustomerID:           customer.ID,
		PreviousBalance:      d("700"),
		AmountPaidByCustomer: d("300"),
		FinalBalance:         d("400"),
		Status:               creditdomain.StatusActive,
		CreatedAt:            base.Add(24 * time.Hour),
		UpdatedAt:            base.Add(24 * time.Hour),
	}
	if err := conn.Create(&credit).Error; err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	history, err := svc.CustomerHistory(context.Background(), customer.ID.String())
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	if history.TotalInvoices != 1 || history.TotalCredits != 1 {
		t.Errorf("expected 1 invoice and 1 credit, got %d/%d", history.TotalInvoices, history.TotalCredits)
	}
	if len(history.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history.Entries))
	}
	if history.Entries[0].Type != ledgerdomain.EntryCredit {
		t.Errorf("newest entry must come first, got %s", history.Entries[0].Type)
	}
	if !history.Entries[0].NewBalance.Equal(d("400")) {
		t.Errorf("credit new balance: expected 400, got %s", history.Entries[0].NewBalance)
	}
	if history.Entries[1].Type != ledgerdomain.EntryInvoice {
		t.Errorf("expected invoice second, got %s", history.Entries[1].Type)
	}
	if !history.Balance.Equal(d("400")) {
		t.Errorf("current balance: expected 400, got %s", history.Balance)
	}
}

func TestCustomerHistoryEmptyIsValid(t *testing.T) {
	svc, conn, node := newFixture(t)
	customer := seedCustomer(t, conn, node, "New Customer", "+919800000015", "0")

	history, err := svc.CustomerHistory(context.Background(), customer.ID.String())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Entries) != 0 || history.TotalInvoices != 0 || history.TotalCredits != 0 {
		t.Errorf("expected empty history, got %d entries", len(history.Entries))
	}
}

func TestCustomerHistoryUnknownCustomer(t *testing.T) {
	svc, _, node := newFixture(t)

	_, err := svc.CustomerHistory(context.Background(), node.Generate().String())
	if !errors.Is(err, ledgerdomain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}
