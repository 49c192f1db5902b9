package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billbook/internal/clock"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	"github.com/smallbiznis/billbook/internal/events"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
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

type fixture struct {
	svc      creditdomain.Service
	db       *gorm.DB
	genID    *snowflake.Node
	customer customerdomain.Customer
}

func newFixture(t *testing.T) *fixture {
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
		&events.OutboxRow{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	customer := customerdomain.Customer{
		ID:      node.Generate(),
		Name:    "Meena Stores",
		Phone:   "+919800000002",
		Balance: d("500"),
	}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	svc := NewService(ServiceParam{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.Fixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Outbox: events.NewOutbox(conn, node),
	})

	return &fixture{svc: svc, db: conn, genID: node, customer: customer}
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	var customer customerdomain.Customer
	if err := f.db.First(&customer, "id = ?", f.customer.ID).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	return customer.Balance
}

func TestCreateCreditReducesBalance(t *testing.T) {
	f := newFixture(t)

	credit, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           f.customer.ID.String(),
		AmountPaidByCustomer: d("300"),
	})
	if err != nil {
		t.Fatalf("create credit: %v", err)
	}

	if !credit.PreviousBalance.Equal(d("500")) {
		t.Errorf("previous balance snapshot: expected 500, got %s", credit.PreviousBalance)
	}
	if !credit.FinalBalance.Equal(d("200")) {
		t.Errorf("final balance: expected 500 - 300 = 200, got %s", credit.FinalBalance)
	}
	if got := f.balance(t); !got.Equal(d("200")) {
		t.Errorf("customer balance: expected 200, got %s", got)
	}

	var outboxCount int64
	if err := f.db.Model(&events.OutboxRow{}).
		Where("event_type = ?", events.EventCreditPosted).
		Count(&outboxCount).Error; err != nil || outboxCount != 1 {
		t.Errorf("expected 1 credit_posted outbox row, got %d (err=%v)", outboxCount, err)
	}
}

func TestCreateCreditCanDriveBalanceNegative(t *testing.T) {
	f := newFixture(t)

	credit, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           f.customer.ID.String(),
		AmountPaidByCustomer: d("800"),
	})
	if err != nil {
		t.Fatalf("create credit: %v", err)
	}

	// Overpayment becomes money the business owes the customer.
	if !credit.FinalBalance.Equal(d("-300")) {
		t.Errorf("final balance: expected -300, got %s", credit.FinalBalance)
	}
	if got := f.balance(t); !got.Equal(d("-300")) {
		t.Errorf("customer balance: expected -300, got %s", got)
	}
}

func TestCreateCreditRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           f.customer.ID.String(),
		AmountPaidByCustomer: decimal.Zero,
	})
	if !errors.Is(err, creditdomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateCreditUnknownCustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           f.genID.Generate().String(),
		AmountPaidByCustomer: d("100"),
	})
	if !errors.Is(err, customerdomain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestVoidCreditRestoresSnapshot(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           f.customer.ID.String(),
		AmountPaidByCustomer: d("300"),
	})
	if err != nil {
		t.Fatalf("create credit: %v", err)
	}

	voided, err := f.svc.Void(context.Background(), created.ID.String())
	if err != nil {
		t.Fatalf("void credit: %v", err)
	}
	if voided.Status != creditdomain.StatusVoid {
		t.Errorf("expected VOID status, got %s", voided.Status)
	}
	if got := f.balance(t); !got.Equal(d("500")) {
		t.Errorf("balance must be restored to snapshot, got %s", got)
	}
}

func TestVoidCreditTwiceRejected(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           f.customer.ID.String(),
		AmountPaidByCustomer: d("100"),
	})
	if err != nil {
		t.Fatalf("create credit: %v", err)
	}
	if _, err := f.svc.Void(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("first void: %v", err)
	}

	_, err = f.svc.Void(context.Background(), created.ID.String())
	if !errors.Is(err, creditdomain.ErrCreditAlreadyVoid) {
		t.Fatalf("expected ErrCreditAlreadyVoid, got %v", err)
	}
}

func TestListFiltersByCustomer(t *testing.T) {
	f := newFixture(t)

	other := customerdomain.Customer{
		ID:      f.genID.Generate(),
		Name:    "Side Account",
		Phone:   "+919800000003",
		Balance: d("50"),
	}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("seed other customer: %v", err)
	}

	if _, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           f.customer.ID.String(),
		AmountPaidByCustomer: d("100"),
	}); err != nil {
		t.Fatalf("create credit: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), creditdomain.CreateCreditRequest{
		CustomerID:           other.ID.String(),
		AmountPaidByCustomer: d("25"),
	}); err != nil {
		t.Fatalf("create other credit: %v", err)
	}

	resp, err := f.svc.List(context.Background(), creditdomain.ListCreditRequest{
		CustomerID: f.customer.ID.String(),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Credits) != 1 || resp.Credits[0].CustomerID != f.customer.ID {
		t.Fatalf("expected one credit for the customer, got %d rows", len(resp.Credits))
	}
}
