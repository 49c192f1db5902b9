package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billbook/internal/clock"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	"github.com/smallbiznis/billbook/internal/events"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	"github.com/smallbiznis/billbook/internal/observability/metrics"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
	"github.com/smallbiznis/billbook/pkg/db"
	"github.com/smallbiznis/billbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Outbox  *events.Outbox
	Metrics *metrics.PostingMetrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	outbox     *events.Outbox
	metrics    *metrics.PostingMetrics
	rowLocking bool
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		outbox:     p.Outbox,
		metrics:    p.Metrics,
		rowLocking: db.SupportsRowLocking(p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoice invoicedomain.Invoice, err error) {
	defer func() { s.metrics.Observe("invoice_create", err) }()

	customerID, err := parseCustomerID(req.CustomerID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidItems
	}
	if req.PaidByCustomer.IsNegative() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPaidAmount
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.lockCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		invoiceID := s.genID.Generate()

		items, err := s.buildItems(ctx, tx, invoiceID, req.Items, now)
		if err != nil {
			return err
		}
		taxItems := buildTaxItems(s.genID, invoiceID, req.TaxItems, now)
		packagingItems := buildPackagingItems(s.genID, invoiceID, req.PackagingItems, now)
		transportItems := buildTransportItems(s.genID, invoiceID, req.TransportItems, now)

		totals := invoicedomain.ComputeTotals(
			items, taxItems, packagingItems, transportItems,
			req.AmountDiscount, req.PercentDiscount, req.NumberOfCartons,
		)

		prevBalance := customer.Balance
		remaining := prevBalance.Add(totals.FinalAmount).Sub(req.PaidByCustomer)

		invoice = invoicedomain.Invoice{
			ID:               invoiceID,
			CustomerID:       customer.ID,
			TotalAmount:      totals.Subtotal,
			AmountDiscount:   req.AmountDiscount,
			PercentDiscount:  req.PercentDiscount,
			FinalAmount:      totals.FinalAmount,
			CustPrevBalance:  prevBalance,
			PaidByCustomer:   req.PaidByCustomer,
			RemainingBalance: remaining,
			NumberOfCartons:  cartonsOrDefault(req.NumberOfCartons),
			Status:           invoicedomain.StatusActive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
			return err
		}
		if err := insertLineItems(ctx, tx, items, taxItems, packagingItems, transportItems); err != nil {
			return err
		}

		if err := s.writeBalance(ctx, tx, customer.ID, remaining, now); err != nil {
			return err
		}

		invoice.Items = items
		invoice.TaxItems = taxItems
		invoice.PackagingItems = packagingItems
		invoice.TransportItems = transportItems
		customer.Balance = remaining
		customer.UpdatedAt = now
		invoice.Customer = &customer

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventInvoicePosted,
			Payload: events.PostingPayload{
				TransactionID: invoice.ID.String(),
				CustomerID:    customer.ID.String(),
				Amount:        totals.FinalAmount.String(),
				NewBalance:    remaining.String(),
			}.ToMap(),
			DedupeKey: "invoice_posted:" + invoice.ID.String(),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice posted",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", invoice.CustomerID.String()),
		zap.String("final_amount", invoice.FinalAmount.String()),
		zap.String("remaining_balance", invoice.RemainingBalance.String()),
	)
	return invoice, nil
}

func (s *Service) Update(ctx context.Context, req invoicedomain.UpdateInvoiceRequest) (invoice invoicedomain.Invoice, err error) {
	defer func() { s.metrics.Observe("invoice_update", err) }()

	id, err := parseInvoiceID(req.ID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidItems
	}
	if req.PaidByCustomer.IsNegative() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPaidAmount
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.loadInvoice(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing.Status == invoicedomain.StatusVoid {
			return invoicedomain.ErrInvoiceVoided
		}

		customer, err := s.lockCustomer(ctx, tx, existing.CustomerID)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		// Line items are replaced wholesale.
		if err := deleteLineItems(ctx, tx, id); err != nil {
			return err
		}
		items, err := s.buildItems(ctx, tx, id, req.Items, now)
		if err != nil {
			return err
		}
		taxItems := buildTaxItems(s.genID, id, req.TaxItems, now)
		packagingItems := buildPackagingItems(s.genID, id, req.PackagingItems, now)
		transportItems := buildTransportItems(s.genID, id, req.TransportItems, now)

		totals := invoicedomain.ComputeTotals(
			items, taxItems, packagingItems, transportItems,
			req.AmountDiscount, req.PercentDiscount, req.NumberOfCartons,
		)

		// The pre-invoice snapshot never moves; the rebuilt totals
		// re-derive the balance from it.
		remaining := existing.CustPrevBalance.Add(totals.FinalAmount).Sub(req.PaidByCustomer)

		existing.TotalAmount = totals.Subtotal
		existing.AmountDiscount = req.AmountDiscount
		existing.PercentDiscount = req.PercentDiscount
		existing.FinalAmount = totals.FinalAmount
		existing.PaidByCustomer = req.PaidByCustomer
		existing.RemainingBalance = remaining
		existing.NumberOfCartons = cartonsOrDefault(req.NumberOfCartons)
		existing.UpdatedAt = now

		if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
			return err
		}
		if err := insertLineItems(ctx, tx, items, taxItems, packagingItems, transportItems); err != nil {
			return err
		}
		if err := s.writeBalance(ctx, tx, customer.ID, remaining, now); err != nil {
			return err
		}

		existing.Items = items
		existing.TaxItems = taxItems
		existing.PackagingItems = packagingItems
		existing.TransportItems = transportItems
		customer.Balance = remaining
		customer.UpdatedAt = now
		existing.Customer = &customer
		invoice = existing

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventInvoiceUpdated,
			Payload: events.PostingPayload{
				TransactionID: existing.ID.String(),
				CustomerID:    customer.ID.String(),
				Amount:        totals.FinalAmount.String(),
				NewBalance:    remaining.String(),
			}.ToMap(),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) Void(ctx context.Context, rawID string) (invoice invoicedomain.Invoice, err error) {
	defer func() { s.metrics.Observe("invoice_void", err) }()

	id, err := parseInvoiceID(rawID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.loadInvoice(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing.Status == invoicedomain.StatusVoid {
			return invoicedomain.ErrInvoiceAlreadyVoid
		}

		customer, err := s.lockCustomer(ctx, tx, existing.CustomerID)
		if err != nil {
			return err
		}

		if s.hasLaterActivity(ctx, tx, customer.ID, existing.CreatedAt, existing.ID, 0) {
			// Restoring the stored snapshot discards every balance
			// change posted after this invoice.
			s.log.Warn("voiding non-latest transaction",
				zap.String("invoice_id", existing.ID.String()),
				zap.String("customer_id", customer.ID.String()),
			)
		}

		now := s.clock.Now()
		existing.Status = invoicedomain.StatusVoid
		existing.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
			return err
		}
		if err := s.writeBalance(ctx, tx, customer.ID, existing.CustPrevBalance, now); err != nil {
			return err
		}

		customer.Balance = existing.CustPrevBalance
		customer.UpdatedAt = now
		existing.Customer = &customer
		invoice = existing

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventInvoiceVoided,
			Payload: events.PostingPayload{
				TransactionID: existing.ID.String(),
				CustomerID:    customer.ID.String(),
				Amount:        existing.FinalAmount.String(),
				NewBalance:    existing.CustPrevBalance.String(),
			}.ToMap(),
			DedupeKey: "invoice_voided:" + existing.ID.String(),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice voided",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", invoice.CustomerID.String()),
	)
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (invoicedomain.Invoice, error) {
	id, err := parseInvoiceID(rawID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).
		Preload("Items").
		Preload("TaxItems").
		Preload("PackagingItems").
		Preload("TransportItems").
		Preload("Customer").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	limit := req.Limit()

	query := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Order("id ASC").
		Limit(limit + 1)

	if cursor := req.Cursor(); cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		id, err := snowflake.ParseString(customerID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidCustomer
		}
		query = query.Where("customer_id = ?", id)
	}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var invoices []invoicedomain.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if len(invoices) > limit {
		resp.Invoices = invoices[:limit]
		resp.HasMore = true
		resp.NextPageToken = pagination.Token(int64(resp.Invoices[limit-1].ID))
	}
	return resp, nil
}

// lockCustomer reads the customer row for update so concurrent
// postings against the same customer serialize on the balance.
func (s *Service) lockCustomer(ctx context.Context, tx *gorm.DB, id snowflake.ID) (customerdomain.Customer, error) {
	query := tx.WithContext(ctx)
	if s.rowLocking {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var customer customerdomain.Customer
	if err := query.First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return customerdomain.Customer{}, customerdomain.ErrCustomerNotFound
		}
		return customerdomain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) loadInvoice(ctx context.Context, tx *gorm.DB, id snowflake.ID) (invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	if err := tx.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) writeBalance(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, balance decimal.Decimal, now time.Time) error {
	return tx.WithContext(ctx).Model(&customerdomain.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"balance":    balance,
			"updated_at": now,
		}).Error
}

// hasLaterActivity reports whether the customer has ACTIVE invoices or
// credits created after the given instant.
func (s *Service) hasLaterActivity(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, since time.Time, excludeInvoice, excludeCredit snowflake.ID) bool {
	var count int64
	if err := tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("customer_id = ? AND status = ? AND created_at > ? AND id <> ?",
			customerID, invoicedomain.StatusActive, since, excludeInvoice).
		Count(&count).Error; err == nil && count > 0 {
		return true
	}
	if err := tx.WithContext(ctx).Table("credits").
		Where("customer_id = ? AND status = ? AND created_at > ? AND id <> ?",
			customerID, invoicedomain.StatusActive, since, excludeCredit).
		Count(&count).Error; err == nil && count > 0 {
		return true
	}
	return false
}

func (s *Service) buildItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, inputs []invoicedomain.ItemInput, now time.Time) ([]invoicedomain.InvoiceItem, error) {
	items := make([]invoicedomain.InvoiceItem, 0, len(inputs))
	for _, input := range inputs {
		productID, err := snowflake.ParseString(strings.TrimSpace(input.ProductID))
		if err != nil || productID == 0 {
			return nil, invoicedomain.ErrInvalidItems
		}
		if !input.Quantity.IsPositive() {
			return nil, invoicedomain.ErrInvalidQuantity
		}

		var product productdomain.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, productdomain.ErrProductNotFound
			}
			return nil, err
		}

		items = append(items, invoicedomain.InvoiceItem{
			ID:              s.genID.Generate(),
			InvoiceID:       invoiceID,
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductPrice:    product.Price,
			Quantity:        input.Quantity,
			AmountDiscount:  input.AmountDiscount,
			PercentDiscount: input.PercentDiscount,
			CreatedAt:       now,
		})
	}
	return items, nil
}

func buildTaxItems(genID *snowflake.Node, invoiceID snowflake.ID, inputs []invoicedomain.ChargeInput, now time.Time) []invoicedomain.TaxItem {
	out := make([]invoicedomain.TaxItem, 0, len(inputs))
	for _, input := range inputs {
		out = append(out, invoicedomain.TaxItem{
			ID:        genID.Generate(),
			InvoiceID: invoiceID,
			Name:      strings.TrimSpace(input.Name),
			Percent:   input.Percent,
			Amount:    input.Amount,
			CreatedAt: now,
		})
	}
	return out
}

func buildPackagingItems(genID *snowflake.Node, invoiceID snowflake.ID, inputs []invoicedomain.ChargeInput, now time.Time) []invoicedomain.PackagingItem {
	out := make([]invoicedomain.PackagingItem, 0, len(inputs))
	for _, input := range inputs {
		out = append(out, invoicedomain.PackagingItem{
			ID:        genID.Generate(),
			InvoiceID: invoiceID,
			Name:      strings.TrimSpace(input.Name),
			Amount:    input.Amount,
			CreatedAt: now,
		})
	}
	return out
}

func buildTransportItems(genID *snowflake.Node, invoiceID snowflake.ID, inputs []invoicedomain.ChargeInput, now time.Time) []invoicedomain.TransportItem {
	out := make([]invoicedomain.TransportItem, 0, len(inputs))
	for _, input := range inputs {
		out = append(out, invoicedomain.TransportItem{
			ID:        genID.Generate(),
			InvoiceID: invoiceID,
			Name:      strings.TrimSpace(input.Name),
			Amount:    input.Amount,
			CreatedAt: now,
		})
	}
	return out
}

func insertLineItems(
	ctx context.Context,
	tx *gorm.DB,
	items []invoicedomain.InvoiceItem,
	taxItems []invoicedomain.TaxItem,
	packagingItems []invoicedomain.PackagingItem,
	transportItems []invoicedomain.TransportItem,
) error {
	if len(items) > 0 {
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			return err
		}
	}
	if len(taxItems) > 0 {
		if err := tx.WithContext(ctx).Create(&taxItems).Error; err != nil {
			return err
		}
	}
	if len(packagingItems) > 0 {
		if err := tx.WithContext(ctx).Create(&packagingItems).Error; err != nil {
			return err
		}
	}
	if len(transportItems) > 0 {
		if err := tx.WithContext(ctx).Create(&transportItems).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteLineItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error {
	for _, model := range []any{
		&invoicedomain.InvoiceItem{},
		&invoicedomain.TaxItem{},
		&invoicedomain.PackagingItem{},
		&invoicedomain.TransportItem{},
	} {
		if err := tx.WithContext(ctx).Delete(model, "invoice_id = ?", invoiceID).Error; err != nil {
			return err
		}
	}
	return nil
}

func cartonsOrDefault(cartons int) int {
	if cartons < 1 {
		return 1
	}
	return cartons
}

func parseInvoiceID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}

func parseCustomerID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidCustomer
	}
	return id, nil
}
