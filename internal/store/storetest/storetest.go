// Package storetest opens throwaway databases for tests.
package storetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"assembly-service/internal/model"
	"assembly-service/internal/store"
	"assembly-service/pkg/config"
	"assembly-service/pkg/database"
)

// Open returns a migrated store backed by a sqlite file in t.TempDir().
// A file (rather than :memory:) lets concurrent goroutines share one database
// while sqlite serializes writers through busy_timeout.
func Open(t *testing.T) *store.Store {
	t.Helper()
	db := OpenDB(t)
	return store.New(db)
}

// OpenPooled is Open with a pool of maxOpen connections, the way the
// service runs against a sqlite file.
func OpenPooled(t *testing.T, maxOpen int) *store.Store {
	t.Helper()
	return store.New(openDB(t, maxOpen))
}

// OpenDB is Open without the Store wrapper
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openDB(t, 1)
}

func openDB(t *testing.T, maxOpen int) *gorm.DB {
	t.Helper()
	cfg := &config.DBConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "governance.sqlite"),
		MaxIdleConns: maxOpen,
		MaxOpenConns: maxOpen,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, model.Models()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedProperty registers a property of ownerUserID with the given coefficient
func SeedProperty(t *testing.T, s *store.Store, tenantID, ownerUserID uint, coefficient string) *model.Property {
	t.Helper()
	p := &model.Property{
		OwnerUserID: ownerUserID,
		Unit:        fmt.Sprintf("U-%d-%d", ownerUserID, tenantID),
		Coefficient: decimal.RequireFromString(coefficient),
	}
	require.NoError(t, s.Tenant(context.Background(), tenantID).CreateProperty(p))
	return p
}
