package db

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/matteworks/matte-server/internal/config"
	"github.com/matteworks/matte-server/internal/db/drivers"
)

func NewConnection(ctx context.Context, config *config.Config) (drivers.Driver, error) {
	// Without an explicit DB config, fall back to an embedded sqlite
	// database inside the matte home directory.
	if config.DB == nil || config.DB.DSN == "" {
		dsn := "file:" + filepath.Join(config.MatteHome, "main.db")
		return drivers.NewSQLiteDriver(ctx, dsn)
	}

	driver := config.DB.Driver
	if driver == "" || driver == "sqlite" {
		return drivers.NewSQLiteDriver(ctx, config.DB.DSN)
	} else if driver == "pg" {
		return drivers.NewPGDriver(ctx, config.DB.DSN)
	}

	return nil, fmt.Errorf("invalid database driver: %s", driver)
}
