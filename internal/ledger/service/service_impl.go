package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/billbook/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p ServiceParam) ledgerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("ledger.service"),
	}
}

func (s *Service) Overview(ctx context.Context) (ledgerdomain.Overview, error) {
	var customers []customerdomain.Customer
	err := s.db.WithContext(ctx).
		Where("balance <> 0").
		Order("balance DESC").
		Find(&customers).Error
	if err != nil {
		return ledgerdomain.Overview{}, err
	}

	overview := ledgerdomain.Overview{
		Rows:          make([]ledgerdomain.OverviewRow, 0, len(customers)),
		TotalOwed:     decimal.Zero,
		CustomerCount: len(customers),
	}
	for _, customer := range customers {
		overview.Rows = append(overview.Rows, ledgerdomain.OverviewRow{
			CustomerID: customer.ID,
			Name:       customer.Name,
			Firm:       customer.Firm,
			Phone:      customer.Phone,
			Balance:    customer.Balance,
		})
		if customer.Balance.IsPositive() {
			overview.TotalOwed = overview.TotalOwed.Add(customer.Balance)
		}
	}
	return overview, nil
}

func (s *Service) CustomerHistory(ctx context.Context, rawID string) (ledgerdomain.History, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || customerID == 0 {
		return ledgerdomain.History{}, ledgerdomain.ErrInvalidCustomer
	}

	var customer customerdomain.Customer
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgerdomain.History{}, ledgerdomain.ErrCustomerNotFound
		}
		return ledgerdomain.History{}, err
	}

	var invoices []invoicedomain.Invoice
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Find(&invoices).Error; err != nil {
		return ledgerdomain.History{}, err
	}

	var credits []creditdomain.Credit
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Find(&credits).Error; err != nil {
		return ledgerdomain.History{}, err
	}

	entries := make([]ledgerdomain.HistoryEntry, 0, len(invoices)+len(credits))
	for _, invoice := range invoices {
		entries = append(entries, ledgerdomain.HistoryEntry{
			Type:            ledgerdomain.EntryInvoice,
			ID:              invoice.ID,
			Date:            invoice.CreatedAt,
			Amount:          invoice.FinalAmount,
			Paid:            invoice.PaidByCustomer,
			PreviousBalance: invoice.CustPrevBalance,
			NewBalance:      invoice.RemainingBalance,
			Status:          string(invoice.Status),
		})
	}
	for _, credit := range credits {
		entries = append(entries, ledgerdomain.HistoryEntry{
			Type:            ledgerdomain.EntryCredit,
			ID:              credit.ID,
			Date:            credit.CreatedAt,
			Amount:          credit.AmountPaidByCustomer,
			Paid:            credit.AmountPaidByCustomer,
			PreviousBalance: credit.PreviousBalance,
			NewBalance:      credit.FinalBalance,
			Status:          string(credit.Status),
		})
	}

	// Newest first; snowflake ids break ties in posting order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Date.After(entries[j].Date)
	})

	return ledgerdomain.History{
		CustomerID:    customerID,
		Entries:       entries,
		TotalInvoices: len(invoices),
		TotalCredits:  len(credits),
		Balance:       customer.Balance,
	}, nil
}
