package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	"leasebill/internal/core/numerator"
	"leasebill/internal/core/tx"
	"leasebill/internal/domain/audit"
	"leasebill/internal/domain/auth"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
	"leasebill/internal/domain/unit"
	v1 "leasebill/internal/infrastructure/http/v1"
	"leasebill/internal/infrastructure/http/v1/middleware"
	"leasebill/internal/infrastructure/storage/memory"
	"leasebill/internal/infrastructure/storage/postgres"
	"leasebill/internal/infrastructure/storage/postgres/lease_repo"
	"leasebill/pkg/logger"
	pgnumerator "leasebill/pkg/numerator"
)

// Version is reported by /health/info.
var Version = "0.1.0"

// Storage is the set of repositories a driver provides.
type Storage struct {
	Contracts    contract.Repository
	Finder       installment.ContractFinder
	Installments installment.Repository
	Units        unit.Repository
	TxManager    tx.Manager
	Numerator    numerator.Generator
	AuditSink    audit.Sink
	History      audit.Reader

	// Pool is set for the postgres driver only.
	Pool *postgres.Pool
	// Memory is set for the memory driver only.
	Memory *memory.Store
}

// Close releases the storage resources.
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenStorage connects the configured storage driver.
func OpenStorage(ctx context.Context, cfg Config) (*Storage, error) {
	switch cfg.StorageDriver {
	case DriverMemory:
		return NewMemoryStorage(memory.NewStore()), nil
	case DriverPostgres:
		return openPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// NewMemoryStorage wires the in-memory repositories over store.
func NewMemoryStorage(store *memory.Store) *Storage {
	contracts := memory.NewContractRepo(store)
	sink := memory.NewAuditSink(store)
	return &Storage{
		Contracts:    contracts,
		Finder:       contracts,
		Installments: memory.NewInstallmentRepo(store),
		Units:        memory.NewUnitRepo(store),
		TxManager:    memory.NewTxManager(store),
		Numerator:    &numerator.MockGenerator{},
		AuditSink:    sink,
		History:      sink,
		Memory:       store,
	}
}

func openPostgres(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	txManager := postgres.NewTxManager(pool)
	sink, err := postgres.NewAuditSink(txManager, cfg.AuditCompressThreshold)
	if err != nil {
		pool.Close()
		return nil, err
	}
	contracts := lease_repo.NewContractRepo(txManager)

	return &Storage{
		Contracts:    contracts,
		Finder:       contracts,
		Installments: lease_repo.NewInstallmentRepo(txManager),
		Units:        lease_repo.NewUnitRepo(txManager),
		TxManager:    txManager,
		Numerator: pgnumerator.New(func(ctx context.Context) pgnumerator.Querier {
			return txManager.GetQuerier(ctx)
		}),
		AuditSink: sink,
		History:   sink,
		Pool:      pool,
	}, nil
}

// Services are the billing services built over a Storage.
type Services struct {
	Contracts    *contract.Service
	Installments *installment.Service
	Clock        billing.Clock
}

// NewServices builds the services. clock nil selects the system clock in cfg's timezone.
func NewServices(cfg Config, storage *Storage, clock billing.Clock) *Services {
	if clock == nil {
		clock = billing.SystemClock(cfg.Location())
	}
	recorder := audit.NewRecorder(storage.AuditSink)
	generator := installment.NewGenerator(storage.Installments, billing.NewCalculator(cfg.BillingMaxPeriods))

	return &Services{
		Contracts: contract.NewService(contract.ServiceConfig{
			Repo:         storage.Contracts,
			Installments: storage.Installments,
			Units:        storage.Units,
			Generator:    generator,
			Numerator:    storage.Numerator,
			TxManager:    storage.TxManager,
			Audit:        recorder,
			Clock:        clock,
		}),
		Installments: installment.NewService(storage.Installments, storage.Finder, storage.TxManager, recorder, clock),
		Clock:        clock,
	}
}

// NewHandler builds the gin router wrapped in the CORS handler.
func NewHandler(cfg Config, storage *Storage, services *Services, log *logger.Logger) http.Handler {
	var validator middleware.TokenValidator
	if cfg.JWTSecret != "" {
		validator = auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
	}

	router := v1.NewRouter(v1.RouterConfig{
		Contracts:      services.Contracts,
		Installments:   services.Installments,
		History:        storage.History,
		Clock:          services.Clock,
		Pool:           storage.Pool,
		StorageDriver:  cfg.StorageDriver,
		Version:        Version,
		Logger:         log,
		TokenValidator: validator,
		Debug:          cfg.IsDevelopment() && cfg.LogLevel == "debug",
	})
	return withCORS(router, cfg.CORSAllowedOrigins)
}

func withCORS(router *gin.Engine, origins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderRequestID, middleware.HeaderTraceID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: false,
		MaxAge:           300,
	})(router)
}
