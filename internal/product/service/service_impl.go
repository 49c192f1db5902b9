package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billbook/internal/cache"
	"github.com/smallbiznis/billbook/internal/clock"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
	"github.com/smallbiznis/billbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const productCacheTTL = 30 * time.Second

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cache cache.Cache[snowflake.ID, productdomain.Product]
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cache cache.Cache[snowflake.ID, productdomain.Product]
}

func NewService(p ServiceParam) productdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		clock: p.Clock,
		cache: p.Cache,
	}
}

func (s *Service) Create(ctx context.Context, req productdomain.CreateRequest) (productdomain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return productdomain.Product{}, productdomain.ErrInvalidName
	}
	if req.Price.IsNegative() {
		return productdomain.Product{}, productdomain.ErrInvalidPrice
	}

	now := s.clock.Now()
	product := productdomain.Product{
		ID:        s.genID.Generate(),
		Name:      name,
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return productdomain.Product{}, err
	}

	s.log.Info("product created",
		zap.String("product_id", product.ID.String()),
	)
	return product, nil
}

func (s *Service) Update(ctx context.Context, req productdomain.UpdateRequest) (productdomain.Product, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return productdomain.Product{}, err
	}

	var existing productdomain.Product
	if err := s.db.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return productdomain.Product{}, productdomain.ErrProductNotFound
		}
		return productdomain.Product{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return productdomain.Product{}, productdomain.ErrInvalidName
		}
		existing.Name = name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return productdomain.Product{}, productdomain.ErrInvalidPrice
		}
		existing.Price = *req.Price
	}

	existing.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return productdomain.Product{}, err
	}

	s.cache.Delete(existing.ID)
	return existing, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (productdomain.Product, error) {
	id, err := parseID(rawID)
	if err != nil {
		return productdomain.Product{}, err
	}

	if cached, ok := s.cache.Get(id); ok {
		return cached, nil
	}

	var product productdomain.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return productdomain.Product{}, productdomain.ErrProductNotFound
		}
		return productdomain.Product{}, err
	}

	s.cache.Set(id, product, productCacheTTL)
	return product, nil
}

func (s *Service) List(ctx context.Context, req productdomain.ListRequest) (productdomain.ListResponse, error) {
	limit := req.Limit()

	query := s.db.WithContext(ctx).Model(&productdomain.Product{}).
		Order("id ASC").
		Limit(limit + 1)

	if cursor := req.Cursor(); cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	var products []productdomain.Product
	if err := query.Find(&products).Error; err != nil {
		return productdomain.ListResponse{}, err
	}

	resp := productdomain.ListResponse{Products: products}
	if len(products) > limit {
		resp.Products = products[:limit]
		resp.HasMore = true
		resp.NextPageToken = pagination.Token(int64(resp.Products[limit-1].ID))
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product productdomain.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return productdomain.ErrProductNotFound
			}
			return err
		}

		// Referential guard: historical invoice line items keep their
		// product reference forever.
		var refs int64
		if err := tx.WithContext(ctx).Table("invoice_items").
			Where("product_id = ?", id).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return productdomain.ErrProductInUse
		}

		if err := tx.WithContext(ctx).Delete(&productdomain.Product{}, "id = ?", id).Error; err != nil {
			return err
		}
		s.cache.Delete(id)
		return nil
	})
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, productdomain.ErrInvalidID
	}
	return id, nil
}
