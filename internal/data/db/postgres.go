package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/platform/envutil"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	postgresHost := envutil.Get("POSTGRES_HOST", "localhost", logg)
	postgresPort := envutil.Get("POSTGRES_PORT", "5432", logg)
	postgresUser := envutil.Get("POSTGRES_USER", "postgres", logg)
	postgresPassword := envutil.Get("POSTGRES_PASSWORD", "", logg)
	postgresName := envutil.Get("POSTGRES_NAME", "crmbridge", logg)

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser,
		postgresPassword,
		postgresHost,
		postgresPort,
		postgresName,
	)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// Migrate creates or updates every table the sync engine writes.
func (s *PostgresService) Migrate() error {
	return s.db.AutoMigrate(
		&domain.Owner{},
		&domain.Company{},
		&domain.Contact{},
		&domain.Property{},
		&domain.Pipeline{},
		&domain.PipelineStage{},
		&domain.DealPurchase{},
		&domain.DealSale{},
		&domain.Activity{},
		&domain.ActivityDetail{},
		&domain.ActivityAssociation{},
		&domain.SyncStatus{},
		&domain.ChatSession{},
		&domain.ChatMessage{},
	)
}
