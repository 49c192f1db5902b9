package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
	"gorm.io/gorm"
)

type demoCustomer struct {
	name    string
	phone   string
	firm    string
	address string
}

type demoProduct struct {
	name  string
	price string
}

var demoCustomers = []demoCustomer{
	{name: "Ravi Kumar", phone: "+919812000001", firm: "Ravi Traders", address: "14 Market Road"},
	{name: "Meena Joshi", phone: "+919812000002", firm: "Meena Stores", address: "2 Station Street"},
	{name: "Arjun Patel", phone: "+919812000003", firm: "", address: "9 Mill Lane"},
}

var demoProducts = []demoProduct{
	{name: "Steel Sheet", price: "100"},
	{name: "Copper Wire Roll", price: "450"},
	{name: "PVC Pipe 3m", price: "85"},
}

// EnsureDemoData seeds a handful of customers and products so a fresh
// install has something to invoice against. Idempotent; existing rows
// are left alone.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		for _, demo := range demoCustomers {
			var existing customerdomain.Customer
			err := tx.WithContext(ctx).Where("phone = ?", demo.phone).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			customer := customerdomain.Customer{
				ID:        node.Generate(),
				Name:      demo.name,
				Phone:     demo.phone,
				Firm:      demo.firm,
				Address:   demo.address,
				Balance:   decimal.Zero,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
				return err
			}
		}

		for _, demo := range demoProducts {
			var existing productdomain.Product
			err := tx.WithContext(ctx).Where("name = ?", demo.name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			price, err := decimal.NewFromString(demo.price)
			if err != nil {
				return err
			}
			product := productdomain.Product{
				ID:        node.Generate(),
				Name:      demo.name,
				Price:     price,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
