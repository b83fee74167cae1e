package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/api"
	"github.com/campuslink/campuslink-api/internal/config"
	"github.com/campuslink/campuslink-api/internal/db"
	"github.com/campuslink/campuslink-api/internal/fallback"
	"github.com/campuslink/campuslink-api/internal/logger"
	"github.com/campuslink/campuslink-api/internal/repository/dao"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate tables -> %w", err)
	}

	// The capacity mirror keeps join decisions available while Postgres is down.
	// It is seeded once at boot and never written back to the database.
	mirror := fallback.NewRegistry()
	if err = seedCapacityMirror(postgresDB, mirror); err != nil {
		zap.L().Warn("failed to seed capacity mirror, degraded mode starts empty", zap.Error(err))
	}

	s := api.NewServer(conf, postgresDB, mirror)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

func seedCapacityMirror(gdb *gorm.DB, mirror *fallback.Registry) error {
	resourceDAO := dao.NewResourceDAO(gdb)
	seeds, err := resourceDAO.CapacitySnapshot()
	if err != nil {
		return fmt.Errorf("resourceDAO.CapacitySnapshot -> %w", err)
	}

	for _, seed := range seeds {
		mirror.Seed(seed.ResourceID, seed.MaxParticipants, seed.Registered)
	}

	zap.L().Info("capacity mirror seeded", zap.Int("resources", len(seeds)))

	return nil
}
