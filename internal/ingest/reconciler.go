package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/logger"
)

const (
	tableExistsQuery = `SELECT EXISTS (
		SELECT FROM information_schema.tables WHERE table_name = $1
	)`

	tableColumnsQuery = `SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1`
)

// Reconcile ensures the destination table exists and satisfies the required
// column contract for the category. The table is created lazily on first
// use; a pre-existing table missing required columns fails with a
// SchemaError naming exactly the missing columns, without running any DDL.
// Calling Reconcile on an already-correct table performs only the existence
// and column checks.
func Reconcile(ctx context.Context, conn destdb.Conn, targetTable string, category domain.EventCategory) error {
	if !category.Valid() {
		return &domain.SchemaError{Table: targetTable, Err: fmt.Errorf("unknown event category %q", category)}
	}
	if err := validateIdentifier(targetTable); err != nil {
		return &domain.SchemaError{Table: targetTable, Err: err}
	}

	exists, err := conn.QueryBool(ctx, tableExistsQuery, targetTable)
	if err != nil {
		return &domain.SchemaError{Table: targetTable, Err: fmt.Errorf("existence check failed: %w", err)}
	}

	if !exists {
		for _, stmt := range renderDDL(category, targetTable) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return &domain.SchemaError{Table: targetTable, Err: fmt.Errorf("DDL failed: %w", err)}
			}
		}
		logger.Info("created destination table",
			zap.String("table", targetTable),
			zap.String("category", category.String()),
		)
	}

	columns, err := conn.QueryStrings(ctx, tableColumnsQuery, targetTable)
	if err != nil {
		return &domain.SchemaError{Table: targetTable, Err: fmt.Errorf("column introspection failed: %w", err)}
	}

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}

	var missing []string
	for _, col := range requiredColumns[category] {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &domain.SchemaError{Table: targetTable, Missing: missing}
	}

	return nil
}
