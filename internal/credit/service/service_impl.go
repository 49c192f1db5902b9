package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billbook/internal/clock"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	"github.com/smallbiznis/billbook/internal/events"
	"github.com/smallbiznis/billbook/internal/observability/metrics"
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

func NewService(p ServiceParam) creditdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("credit.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		outbox:     p.Outbox,
		metrics:    p.Metrics,
		rowLocking: db.SupportsRowLocking(p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req creditdomain.CreateCreditRequest) (credit creditdomain.Credit, err error) {
	defer func() { s.metrics.Observe("credit_create", err) }()

	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return creditdomain.Credit{}, creditdomain.ErrInvalidCustomer
	}
	if !req.AmountPaidByCustomer.IsPositive() {
		return creditdomain.Credit{}, creditdomain.ErrInvalidAmount
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.lockCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		prevBalance := customer.Balance
		finalBalance := prevBalance.Sub(req.AmountPaidByCustomer)

		credit = creditdomain.Credit{
			ID:                   s.genID.Generate(),
			CustomerID:           customer.ID,
			PreviousBalance:      prevBalance,
			AmountPaidByCustomer: req.AmountPaidByCustomer,
			FinalBalance:         finalBalance,
			Status:               creditdomain.StatusActive,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := tx.WithContext(ctx).Create(&credit).Error; err != nil {
			return err
		}
		if err := s.writeBalance(ctx, tx, customer.ID, finalBalance, now); err != nil {
			return err
		}

		customer.Balance = finalBalance
		customer.UpdatedAt = now
		credit.Customer = &customer

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventCreditPosted,
			Payload: events.PostingPayload{
				TransactionID: credit.ID.String(),
				CustomerID:    customer.ID.String(),
				Amount:        req.AmountPaidByCustomer.String(),
				NewBalance:    finalBalance.String(),
			}.ToMap(),
			DedupeKey: "credit_posted:" + credit.ID.String(),
		})
	})
	if err != nil {
		return creditdomain.Credit{}, err
	}

	s.log.Info("credit posted",
		zap.String("credit_id", credit.ID.String()),
		zap.String("customer_id", credit.CustomerID.String()),
		zap.String("amount", credit.AmountPaidByCustomer.String()),
		zap.String("final_balance", credit.FinalBalance.String()),
	)
	return credit, nil
}

func (s *Service) Void(ctx context.Context, rawID string) (credit creditdomain.Credit, err error) {
	defer func() { s.metrics.Observe("credit_void", err) }()

	id, err := parseID(rawID)
	if err != nil {
		return creditdomain.Credit{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing creditdomain.Credit
		if err := tx.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return creditdomain.ErrCreditNotFound
			}
			return err
		}
		if existing.Status == creditdomain.StatusVoid {
			return creditdomain.ErrCreditAlreadyVoid
		}

		customer, err := s.lockCustomer(ctx, tx, existing.CustomerID)
		if err != nil {
			return err
		}

		if s.hasLaterActivity(ctx, tx, customer.ID, existing.CreatedAt, existing.ID) {
			// Restoring the stored snapshot discards every balance
			// change posted after this credit.
			s.log.Warn("voiding non-latest transaction",
				zap.String("credit_id", existing.ID.String()),
				zap.String("customer_id", customer.ID.String()),
			)
		}

		now := s.clock.Now()
		existing.Status = creditdomain.StatusVoid
		existing.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
			return err
		}
		if err := s.writeBalance(ctx, tx, customer.ID, existing.PreviousBalance, now); err != nil {
			return err
		}

		customer.Balance = existing.PreviousBalance
		customer.UpdatedAt = now
		existing.Customer = &customer
		credit = existing

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventCreditVoided,
			Payload: events.PostingPayload{
				TransactionID: existing.ID.String(),
				CustomerID:    customer.ID.String(),
				Amount:        existing.AmountPaidByCustomer.String(),
				NewBalance:    existing.PreviousBalance.String(),
			}.ToMap(),
			DedupeKey: "credit_voided:" + existing.ID.String(),
		})
	})
	if err != nil {
		return creditdomain.Credit{}, err
	}

	s.log.Info("credit voided",
		zap.String("credit_id", credit.ID.String()),
		zap.String("customer_id", credit.CustomerID.String()),
	)
	return credit, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (creditdomain.Credit, error) {
	id, err := parseID(rawID)
	if err != nil {
		return creditdomain.Credit{}, err
	}

	var credit creditdomain.Credit
	err = s.db.WithContext(ctx).
		Preload("Customer").
		First(&credit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return creditdomain.Credit{}, creditdomain.ErrCreditNotFound
		}
		return creditdomain.Credit{}, err
	}
	return credit, nil
}

func (s *Service) List(ctx context.Context, req creditdomain.ListCreditRequest) (creditdomain.ListCreditResponse, error) {
	limit := req.Limit()

	query := s.db.WithContext(ctx).Model(&creditdomain.Credit{}).
		Order("id ASC").
		Limit(limit + 1)

	if cursor := req.Cursor(); cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		id, err := snowflake.ParseString(customerID)
		if err != nil {
			return creditdomain.ListCreditResponse{}, creditdomain.ErrInvalidCustomer
		}
		query = query.Where("customer_id = ?", id)
	}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var credits []creditdomain.Credit
	if err := query.Find(&credits).Error; err != nil {
		return creditdomain.ListCreditResponse{}, err
	}

	resp := creditdomain.ListCreditResponse{Credits: credits}
	if len(credits) > limit {
		resp.Credits = credits[:limit]
		resp.HasMore = true
		resp.NextPageToken = pagination.Token(int64(resp.Credits[limit-1].ID))
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
func (s *Service) hasLaterActivity(ctx context.Context, tx *gorm.DB, customerID snowflake.ID, since time.Time, excludeCredit snowflake.ID) bool {
	var count int64
	if err := tx.WithContext(ctx).Model(&creditdomain.Credit{}).
		Where("customer_id = ? AND status = ? AND created_at > ? AND id <> ?",
			customerID, creditdomain.StatusActive, since, excludeCredit).
		Count(&count).Error; err == nil && count > 0 {
		return true
	}
	if err := tx.WithContext(ctx).Table("invoices").
		Where("customer_id = ? AND status = ? AND created_at > ?",
			customerID, creditdomain.StatusActive, since).
		Count(&count).Error; err == nil && count > 0 {
		return true
	}
	return false
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, creditdomain.ErrInvalidID
	}
	return id, nil
}
