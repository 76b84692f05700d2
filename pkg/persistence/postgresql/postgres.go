// Package postgresql provides PostgreSQL persistence of flowstate documents.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	flowstateRepo *FlowstateRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and brings the schema up to date.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		flowstateRepo: NewFlowstateRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Flowstates returns the stored document names.
func (p *Persistence) Flowstates(ctx context.Context) ([]string, error) {
	return p.flowstateRepo.Names(ctx)
}

// Flowstate returns a document by name.
func (p *Persistence) Flowstate(ctx context.Context, name string) (*flowstate.Document, error) {
	return p.flowstateRepo.GetByName(ctx, name)
}

// SaveFlowstate creates or replaces a document.
func (p *Persistence) SaveFlowstate(ctx context.Context, name string, doc *flowstate.Document) error {
	return p.flowstateRepo.Save(ctx, name, doc)
}

// DeleteFlowstate removes a document.
func (p *Persistence) DeleteFlowstate(ctx context.Context, name string) error {
	return p.flowstateRepo.Delete(ctx, name)
}
