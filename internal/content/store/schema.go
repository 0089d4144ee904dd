package store

import (
	"context"
	"fmt"
)

// Migrate creates the content tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS content_nodes (
				node_key VARCHAR(36) PRIMARY KEY,
				parent_key VARCHAR(36),
				name VARCHAR(255) NOT NULL,
				content_type VARCHAR(255) NOT NULL,
				url_segment VARCHAR(255) NOT NULL,
				sort_order INTEGER NOT NULL DEFAULT 0,
				published %s NOT NULL,
				protected_groups TEXT NOT NULL,
				create_date %s NOT NULL,
				update_date %s NOT NULL
			)`, s.dialect.booleanType, s.dialect.timeType, s.dialect.timeType),
		`CREATE INDEX IF NOT EXISTS idx_content_nodes_parent_key ON content_nodes (parent_key, sort_order)`,
		`
			CREATE TABLE IF NOT EXISTS content_properties (
				node_key VARCHAR(36) NOT NULL,
				position INTEGER NOT NULL,
				alias VARCHAR(255) NOT NULL,
				editor VARCHAR(64) NOT NULL,
				value TEXT,
				PRIMARY KEY (node_key, position)
			)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate content schema: %w", err)
		}
	}
	return nil
}

// Truncate removes every node and property
func (s *Store) Truncate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"content_properties", "content_nodes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return tx.Commit()
}
