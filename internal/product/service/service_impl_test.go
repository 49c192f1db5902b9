package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billbook/internal/cache"
	"github.com/smallbiznis/billbook/internal/clock"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T) (productdomain.Service, *gorm.DB, *snowflake.Node) {
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
		&productdomain.Product{},
		&invoicedomain.InvoiceItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := NewService(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Cache: cache.NewTTLCache[snowflake.ID, productdomain.Product](),
	})
	return svc, conn, node
}

func TestCreateProduct(t *testing.T) {
	svc, _, _ := newService(t)

	created, err := svc.Create(context.Background(), productdomain.CreateRequest{
		Name:  "Steel Sheet",
		Price: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Steel Sheet" || !created.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected product %+v", created)
	}
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Create(context.Background(), productdomain.CreateRequest{
		Name:  "Broken",
		Price: decimal.NewFromInt(-1),
	})
	if !errors.Is(err, productdomain.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestGetByIDServesCacheAfterFirstLoad(t *testing.T) {
	svc, conn, _ := newService(t)

	created, err := svc.Create(context.Background(), productdomain.CreateRequest{
		Name:  "Copper Wire",
		Price: decimal.NewFromInt(450),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// Delete behind the service's back; the cached copy should still
	// serve until the TTL or an invalidating write.
	if err := conn.Delete(&productdomain.Product{}, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("raw delete: %v", err)
	}
	loaded, err := svc.GetByID(context.Background(), created.ID.String())
	if err != nil {
		t.Fatalf("expected cache hit, got %v", err)
	}
	if loaded.Name != created.Name {
		t.Errorf("unexpected cached product %+v", loaded)
	}
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	svc, _, _ := newService(t)

	created, err := svc.Create(context.Background(), productdomain.CreateRequest{
		Name:  "PVC Pipe",
		Price: decimal.NewFromInt(85),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	newPrice := decimal.NewFromInt(90)
	if _, err := svc.Update(context.Background(), productdomain.UpdateRequest{
		ID:    created.ID.String(),
		Price: &newPrice,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := svc.GetByID(context.Background(), created.ID.String())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !loaded.Price.Equal(newPrice) {
		t.Errorf("stale price after update, got %s", loaded.Price)
	}
}

func TestDeleteProductRefusedWhileReferenced(t *testing.T) {
	svc, conn, node := newService(t)

	created, err := svc.Create(context.Background(), productdomain.CreateRequest{
		Name:  "Referenced",
		Price: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	item := invoicedomain.InvoiceItem{
		ID:           node.Generate(),
		InvoiceID:    node.Generate(),
		ProductID:    created.ID,
		ProductName:  created.Name,
		ProductPrice: created.Price,
		Quantity:     decimal.NewFromInt(1),
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed invoice item: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID.String()); !errors.Is(err, productdomain.ErrProductInUse) {
		t.Fatalf("expected ErrProductInUse, got %v", err)
	}
}

func TestDeleteProductUnreferenced(t *testing.T) {
	svc, _, _ := newService(t)

	created, err := svc.Create(context.Background(), productdomain.CreateRequest{
		Name:  "Disposable",
		Price: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID.String()); !errors.Is(err, productdomain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got %v", err)
	}
}
