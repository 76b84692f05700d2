package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/persistence"
)

// FlowstateRepository handles flowstate-related database operations.
type FlowstateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowstateRepository creates a new flowstate repository.
func NewFlowstateRepository(db *sql.DB, logger *slog.Logger) *FlowstateRepository {
	return &FlowstateRepository{db: db, logger: logger}
}

// Names returns all document names in ascending order.
func (r *FlowstateRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM flowstates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flowstates: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	names := make([]string, 0)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan flowstate name: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flowstates: %w", err)
	}

	return names, nil
}

// GetByName loads and decodes one document.
func (r *FlowstateRepository) GetByName(ctx context.Context, name string) (*flowstate.Document, error) {
	if err := persistence.ValidateName("Flowstate", name); err != nil {
		return nil, err
	}

	var data []byte

	err := r.db.QueryRowContext(ctx, `SELECT document FROM flowstates WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewFlowstateError("Flowstate", name, persistence.ErrFlowstateNotFound)
	}

	if err != nil {
		return nil, persistence.NewFlowstateError("Flowstate", name, err)
	}

	doc, err := flowstate.Decode(data, flowstate.JSON)
	if err != nil {
		return nil, persistence.NewFlowstateError("Flowstate", name, err)
	}

	return doc, nil
}

// Save upserts a document.
func (r *FlowstateRepository) Save(ctx context.Context, name string, doc *flowstate.Document) error {
	if err := persistence.ValidateName("SaveFlowstate", name); err != nil {
		return err
	}

	data, err := flowstate.Encode(doc, flowstate.JSON)
	if err != nil {
		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	query := `
		INSERT INTO flowstates (name, document, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			document = EXCLUDED.document
		  , updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, name, data); err != nil {
		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	r.logger.DebugContext(ctx, "flowstate saved", "name", name, "bytes", len(data))

	return nil
}

// Delete removes a document.
func (r *FlowstateRepository) Delete(ctx context.Context, name string) error {
	if err := persistence.ValidateName("DeleteFlowstate", name); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM flowstates WHERE name = $1`, name)
	if err != nil {
		return persistence.NewFlowstateError("DeleteFlowstate", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowstateError("DeleteFlowstate", name, err)
	}

	if affected == 0 {
		return persistence.NewFlowstateError("DeleteFlowstate", name, persistence.ErrFlowstateNotFound)
	}

	return nil
}
