// Package v1 provides HTTP API version 1.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"leasebill/internal/domain/audit"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
	"leasebill/internal/infrastructure/http/v1/handlers"
	"leasebill/internal/infrastructure/http/v1/middleware"
	"leasebill/internal/infrastructure/storage/postgres"
	"leasebill/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Contracts    *contract.Service
	Installments *installment.Service

	// History serves the audit trail of a contract; nil disables it.
	History audit.Reader

	Clock billing.Clock

	// Pool is nil when the memory storage driver is used.
	Pool          *postgres.Pool
	StorageDriver string
	Version       string

	Logger *logger.Logger

	// TokenValidator identifies callers for audit attribution; nil accepts
	// every request anonymously.
	TokenValidator middleware.TokenValidator

	// Debug enables gin debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.StorageDriver, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	registerAuditHooks(cfg.Contracts)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Actor(cfg.TokenValidator))
	registerContractRoutes(v1, cfg)

	return router
}

// registerAuditHooks stamps created_by/updated_by from the request actor.
func registerAuditHooks(service *contract.Service) {
	hooks := service.Hooks()
	hooks.OnBeforeCreate(func(ctx context.Context, c *contract.Contract) error {
		audit.EnrichCreatedBy(ctx, &c.CreatedBy, &c.UpdatedBy)
		return nil
	})
	hooks.OnBeforeUpdate(func(ctx context.Context, c *contract.Contract) error {
		audit.EnrichUpdatedBy(ctx, &c.UpdatedBy)
		return nil
	})
}

// registerContractRoutes registers the billing endpoints. Static segments
// under /contratos/parcelas take precedence over /contratos/:id.
func registerContractRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	contracts := handlers.NewContractHandler(base, cfg.Contracts, cfg.History, cfg.Clock)
	installments := handlers.NewInstallmentHandler(base, cfg.Installments)

	group := rg.Group("/contratos")
	{
		group.POST("", contracts.Create)
		group.GET("", contracts.List)
		group.GET("/:id", contracts.Get)
		group.PUT("/:id", contracts.Update)
		group.DELETE("/:id", contracts.Delete)
		group.POST("/:id/renovar", contracts.Renew)
		group.GET("/:id/renovacoes", contracts.Renewals)
		group.GET("/:id/historico", contracts.History)
		group.PATCH("/:id/encerrar", contracts.Close)
		group.POST("/:id/parcelas/gerar", contracts.Generate)
	}

	parcelas := group.Group("/parcelas")
	{
		parcelas.GET("/filtro", installments.Filter)
		parcelas.POST("/bulk-update", installments.BulkUpdate)
		parcelas.POST("/avulso", installments.CreateCharge)
		parcelas.GET("/:id", installments.Get)
		parcelas.PATCH("/:id/pagar", installments.Pay)
		parcelas.DELETE("/:id", installments.Delete)
	}
}
