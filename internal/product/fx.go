package product

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billbook/internal/cache"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
	"github.com/smallbiznis/billbook/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(func() cache.Cache[snowflake.ID, productdomain.Product] {
		return cache.NewTTLCache[snowflake.ID, productdomain.Product]()
	}),
	fx.Provide(service.NewService),
)
