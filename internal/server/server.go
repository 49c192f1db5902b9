package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/billbook/internal/audit/domain"
	"github.com/smallbiznis/billbook/internal/config"
	creditdomain "github.com/smallbiznis/billbook/internal/credit/domain"
	customerdomain "github.com/smallbiznis/billbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/billbook/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/billbook/internal/ledger/domain"
	"github.com/smallbiznis/billbook/internal/observability/logger"
	"github.com/smallbiznis/billbook/internal/observability/metrics"
	productdomain "github.com/smallbiznis/billbook/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the HTTP surface.
var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(RunHTTP),
)

type ServerParam struct {
	fx.In

	Log         *zap.Logger
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
	InvoiceSvc  invoicedomain.Service
	CreditSvc   creditdomain.Service
	LedgerSvc   ledgerdomain.Service
	AuditSvc    auditdomain.Service `optional:"true"`
}

// Server hosts the HTTP handlers over the domain services.
type Server struct {
	log         *zap.Logger
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
	invoiceSvc  invoicedomain.Service
	creditSvc   creditdomain.Service
	ledgerSvc   ledgerdomain.Service
	auditSvc    auditdomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		log:         p.Log.Named("server"),
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
		invoiceSvc:  p.InvoiceSvc,
		creditSvc:   p.CreditSvc,
		ledgerSvc:   p.LedgerSvc,
		auditSvc:    p.AuditSvc,
	}
}

type EngineParam struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.HTTPMetrics `optional:"true"`
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(p EngineParam) *gin.Engine {
	if p.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/api/health", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(p.Metrics))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     p.Cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	return engine
}

type RouteParam struct {
	fx.In

	Engine   *gin.Engine
	Server   *Server
	Registry *prometheus.Registry `optional:"true"`
}

// RegisterRoutes mounts every API route on the engine.
func RegisterRoutes(p RouteParam) {
	engine, s := p.Engine, p.Server

	if p.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	api.GET("/health", s.Health)

	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.GET("/customers/:id/history", s.GetCustomerHistory)

	api.POST("/products", s.CreateProduct)
	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/void", s.VoidInvoice)

	api.POST("/credits", s.CreateCredit)
	api.GET("/credits", s.ListCredits)
	api.GET("/credits/:id", s.GetCreditByID)
	api.POST("/credits/:id/void", s.VoidCredit)

	api.GET("/ledger/overview", s.GetLedgerOverview)
}

// @Summary      Health
// @Description  Liveness probe
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type RunParam struct {
	fx.In

	LC     fx.Lifecycle
	Cfg    config.Config
	Log    *zap.Logger
	Engine *gin.Engine
}

// RunHTTP binds the HTTP listener to the fx lifecycle.
func RunHTTP(p RunParam) {
	srv := &http.Server{
		Addr:              p.Cfg.HTTPAddr,
		Handler:           p.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				p.Log.Info("http server listening", zap.String("addr", p.Cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func (s *Server) audit(c *gin.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Log(c.Request.Context(), action, targetType, targetID, metadata)
}
