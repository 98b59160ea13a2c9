package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/estlink/crmbridge-backend/internal/chat"
	"github.com/estlink/crmbridge-backend/internal/data/db"
	chatrepo "github.com/estlink/crmbridge-backend/internal/data/repos/chat"
	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/chroma"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/openai"
	"github.com/estlink/crmbridge-backend/internal/sync"
	"github.com/estlink/crmbridge-backend/internal/vectorsync"
)

// App wires configuration, storage, clients, and services. Both binaries
// build one and pick the pieces they need.
type App struct {
	Log *logger.Logger
	DB  *gorm.DB
	Cfg Config

	Runner          *sync.Runner
	SyncLedger      syncstate.Repo
	Projector       *vectorsync.Projector
	SchemaProjector *vectorsync.SchemaProjector
	Scheduler       *vectorsync.Scheduler
	Chat            *chat.Service
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	gdb := pg.DB()

	hub, err := hubspot.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("init hubspot client: %w", err)
	}
	ai, err := openai.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	chromaCfg, err := chroma.ResolveConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve chroma config: %w", err)
	}
	store, err := chroma.NewStore(log, chromaCfg)
	if err != nil {
		return nil, fmt.Errorf("init chroma store: %w", err)
	}

	owners := crm.NewOwnerRepo(gdb, log)
	companies := crm.NewCompanyRepo(gdb, log)
	contacts := crm.NewContactRepo(gdb, log)
	properties := crm.NewPropertyRepo(gdb, log)
	pipelines := crm.NewPipelineRepo(gdb, log)
	deals := crm.NewDealRepo(gdb, log)
	activities := crm.NewActivityRepo(gdb, log)
	ledger := syncstate.NewRepo(gdb, log)
	sessions := chatrepo.NewRepo(gdb, log)

	resolver := sync.NewResolver(owners, pipelines, contacts, companies, deals, log)
	runner := sync.NewRunner(
		sync.NewOwnerSynchronizer(hub, owners, ledger, log),
		sync.NewCompanySynchronizer(hub, companies, resolver, ledger, log),
		sync.NewPropertySynchronizer(hub, cfg.PropertyObjectType, properties, resolver, ledger, log),
		sync.NewContactSynchronizer(hub, contacts, resolver, ledger, log),
		sync.NewPipelineSynchronizer(hub, cfg.PurchasePipelineID, cfg.SalesPipelineID, pipelines, ledger, log),
		sync.NewDealSynchronizer(hub, cfg.PurchasePipelineID, types.PipelineTypePurchase, deals, resolver, ledger, log),
		sync.NewDealSynchronizer(hub, cfg.SalesPipelineID, types.PipelineTypeSales, deals, resolver, ledger, log),
		sync.NewActivitySynchronizer(hub, activities, resolver, ledger, log),
		log,
	)

	projector := vectorsync.NewProjector(
		owners, companies, contacts, properties, pipelines, deals, activities,
		ai, store, cfg.BusinessCollection, log,
	)
	schemaProjector := vectorsync.NewSchemaProjector(ai, store, cfg.SchemaCollection, log)
	scheduler := vectorsync.NewScheduler(projector, cfg.ProjectionInterval, log)

	collections := chat.Collections{
		Business: cfg.BusinessCollection,
		Schema:   cfg.SchemaCollection,
		History:  cfg.HistoryCollection,
	}
	ownerDir := chat.NewOwnerDirectory(store, cfg.BusinessCollection, log)
	planner := chat.NewPlanner(store, ai, ownerDir, collections, log)
	chatService := chat.NewService(sessions, planner, ai, store, collections, log)

	return &App{
		Log:             log,
		DB:              gdb,
		Cfg:             cfg,
		Runner:          runner,
		SyncLedger:      ledger,
		Projector:       projector,
		SchemaProjector: schemaProjector,
		Scheduler:       scheduler,
		Chat:            chatService,
	}, nil
}
