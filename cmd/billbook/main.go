package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billbook/internal/audit"
	auditdomain "github.com/smallbiznis/billbook/internal/audit/domain"
	"github.com/smallbiznis/billbook/internal/clock"
	"github.com/smallbiznis/billbook/internal/config"
	"github.com/smallbiznis/billbook/internal/credit"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	"github.com/smallbiznis/billbook/internal/customer"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	"github.com/smallbiznis/billbook/internal/events"
	"github.com/smallbiznis/billbook/internal/invoice"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	"github.com/smallbiznis/billbook/internal/ledger"
	"github.com/smallbiznis/billbook/internal/observability"
	"github.com/smallbiznis/billbook/internal/product"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
	"github.com/smallbiznis/billbook/internal/seed"
	"github.com/smallbiznis/billbook/internal/server"
	"github.com/smallbiznis/billbook/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "billbook",
		Short:   "Small-business invoicing and customer balance ledger",
		Version: version,
	}
	root.AddCommand(serveCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Run: func(cmd *cobra.Command, args []string) {
			newApp().Run()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo customers and products",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			conn, err := db.OpenStandalone(cfg)
			if err != nil {
				return err
			}
			if err := migrate(conn); err != nil {
				return err
			}
			return seed.EnsureDemoData(conn)
		},
	}
}

func newApp() *fx.App {
	return fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			if err := migrate(conn); err != nil {
				return err
			}
			if cfg.SeedDemoData {
				return seed.EnsureDemoData(conn)
			}
			return nil
		}),
		events.Module,
		audit.Module,
		customer.Module,
		product.Module,
		invoice.Module,
		credit.Module,
		ledger.Module,
		server.Module,
	)
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&customerdomain.Customer{},
		&productdomain.Product{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.TaxItem{},
		&invoicedomain.PackagingItem{},
		&invoicedomain.TransportItem{},
		&creditdomain.Credit{},
		&events.OutboxRow{},
		&auditdomain.AuditLog{},
	)
}
