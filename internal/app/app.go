// Package app wires configuration, rule catalog, stores and services into a
// running application shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"policyguard/internal/adapters/memory"
	pg "policyguard/internal/adapters/postgres"
	"policyguard/internal/adapters/sqlite"
	"policyguard/internal/config"
	"policyguard/internal/ports"
	"policyguard/internal/rules"
	"policyguard/internal/services/compliance"
	"policyguard/internal/services/policies"
	"policyguard/internal/telemetry"
)

type App struct {
	Rules      *rules.Set
	AuditLog   ports.AuditLog
	Health     ports.Pinger
	Compliance *compliance.Service
	Policies   *policies.Service
	Metrics    *telemetry.Metrics

	closers []func()
}

// Build loads the rule catalog and opens the configured store. A catalog
// that fails to compile is returned as an error so callers abort startup.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	set, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	logger.Info("rule catalog loaded", "rules", set.Len(), "path", cfg.RulesPath)

	a := &App{Rules: set, Metrics: telemetry.NewMetrics()}
	var policyRepo ports.PolicyRepository

	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}
		log := db.AuditLog()
		a.AuditLog, a.Health, policyRepo = log, log, db.Policies()
	case config.StoreSQLite:
		log, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = log.Close() })
		// Policy metadata has no sqlite table; it lives in memory.
		a.AuditLog, a.Health, policyRepo = log, log, memory.NewPolicyRepository()
	default:
		log := memory.NewAuditLog()
		a.AuditLog, a.Health, policyRepo = log, log, memory.NewPolicyRepository()
	}
	logger.Info("audit log store ready", "backend", cfg.StoreBackend)

	a.Compliance = compliance.New(set, a.AuditLog,
		compliance.WithLogger(logger),
		compliance.WithMetrics(a.Metrics),
		compliance.WithMaxTextLength(cfg.MaxTextLength),
	)
	a.Policies = policies.New(policyRepo)
	return a, nil
}

// Close releases store connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
