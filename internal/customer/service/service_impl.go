package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billbook/internal/clock"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	"github.com/smallbiznis/billbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) customerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidName
	}
	phone, ok := normalizePhone(req.Phone)
	if !ok {
		return customerdomain.Customer{}, customerdomain.ErrInvalidPhone
	}
	firm := strings.TrimSpace(req.Firm)

	var created customerdomain.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUnique(ctx, tx, phone, firm, 0); err != nil {
			return err
		}

		now := s.clock.Now()
		created = customerdomain.Customer{
			ID:        s.genID.Generate(),
			Name:      name,
			Phone:     phone,
			Firm:      firm,
			Address:   strings.TrimSpace(req.Address),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.WithContext(ctx).Create(&created).Error
	})
	if err != nil {
		return customerdomain.Customer{}, err
	}

	s.log.Info("customer created",
		zap.String("customer_id", created.ID.String()),
	)
	return created, nil
}

func (s *Service) Update(ctx context.Context, req customerdomain.UpdateCustomerRequest) (customerdomain.Customer, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return customerdomain.Customer{}, customerdomain.ErrInvalidID
	}

	var updated customerdomain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing customerdomain.Customer
		if err := tx.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return customerdomain.ErrCustomerNotFound
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return customerdomain.ErrInvalidName
			}
			existing.Name = name
		}
		if req.Phone != nil {
			phone, ok := normalizePhone(*req.Phone)
			if !ok {
				return customerdomain.ErrInvalidPhone
			}
			existing.Phone = phone
		}
		if req.Firm != nil {
			existing.Firm = strings.TrimSpace(*req.Firm)
		}
		if req.Address != nil {
			existing.Address = strings.TrimSpace(*req.Address)
		}

		if err := s.checkUnique(ctx, tx, existing.Phone, existing.Firm, existing.ID); err != nil {
			return err
		}

		existing.UpdatedAt = s.clock.Now()
		if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return customerdomain.Customer{}, err
	}
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (customerdomain.Customer, error) {
	id, err := parseID(rawID)
	if err != nil {
		return customerdomain.Customer{}, customerdomain.ErrInvalidID
	}

	var customer customerdomain.Customer
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return customerdomain.Customer{}, customerdomain.ErrCustomerNotFound
		}
		return customerdomain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) List(ctx context.Context, req customerdomain.ListCustomerRequest) (customerdomain.ListCustomerResponse, error) {
	limit := req.Limit()

	query := s.db.WithContext(ctx).Model(&customerdomain.Customer{}).
		Order("id ASC").
		Limit(limit + 1)

	if cursor := req.Cursor(); cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		query = query.Where("phone LIKE ?", "%"+phone+"%")
	}

	var customers []customerdomain.Customer
	if err := query.Find(&customers).Error; err != nil {
		return customerdomain.ListCustomerResponse{}, err
	}

	resp := customerdomain.ListCustomerResponse{Customers: customers}
	if len(customers) > limit {
		resp.Customers = customers[:limit]
		resp.HasMore = true
		resp.NextPageToken = pagination.Token(int64(resp.Customers[limit-1].ID))
	}
	return resp, nil
}

func (s *Service) checkUnique(ctx context.Context, tx *gorm.DB, phone, firm string, selfID snowflake.ID) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&customerdomain.Customer{}).
		Where("phone = ? AND id <> ?", phone, selfID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return customerdomain.ErrPhoneTaken
	}

	if firm != "" {
		if err := tx.WithContext(ctx).Model(&customerdomain.Customer{}).
			Where("firm = ? AND id <> ?", firm, selfID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return customerdomain.ErrFirmTaken
		}
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, customerdomain.ErrInvalidID
	}
	return id, nil
}

func normalizePhone(value string) (string, bool) {
	value = strings.TrimSpace(value)
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, value)
	if cleaned == "" {
		return "", false
	}

	digits := cleaned
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	if len(digits) < 7 || len(digits) > 15 {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return cleaned, true
}
