package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/config"
)

// StoreFactory creates the relational store
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{cfg: cfg, logger: logger}
}

// CreateStore builds the store for the configured backend
func (f *StoreFactory) CreateStore() (*store.Store, error) {
	storageCfg := f.cfg.GetStorage()

	switch storageCfg.Type {
	case "sqlite":
		return store.NewSQLiteStore(storageCfg.SQLitePath, f.logger)
	case "mysql":
		return store.NewMySQLStore(storageCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageCfg.Type)
	}
}
