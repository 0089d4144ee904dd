package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/delivery/internal/content"
)

var _ content.Graph = (*Store)(nil)

const nodeColumns = `node_key, parent_key, name, content_type, url_segment, sort_order,
	published, protected_groups, create_date, update_date`

// Save upserts nodes and replaces their properties in a single transaction
func (s *Store) Save(ctx context.Context, nodes ...*content.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := s.dialect.rebind(`
		INSERT INTO content_nodes (` + nodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (node_key) DO UPDATE SET
			parent_key = EXCLUDED.parent_key,
			name = EXCLUDED.name,
			content_type = EXCLUDED.content_type,
			url_segment = EXCLUDED.url_segment,
			sort_order = EXCLUDED.sort_order,
			published = EXCLUDED.published,
			protected_groups = EXCLUDED.protected_groups,
			create_date = EXCLUDED.create_date,
			update_date = EXCLUDED.update_date`)
	deleteProps := s.dialect.rebind(`DELETE FROM content_properties WHERE node_key = ?`)
	insertProp := s.dialect.rebind(`
		INSERT INTO content_properties (node_key, position, alias, editor, value)
		VALUES (?, ?, ?, ?, ?)`)

	for _, n := range nodes {
		groups, err := json.Marshal(nonNil(n.ProtectedGroups))
		if err != nil {
			return fmt.Errorf("failed to marshal protected groups of %s: %w", n.Key, err)
		}

		var parentKey interface{}
		if n.ParentKey != nil {
			parentKey = n.ParentKey.String()
		}

		_, err = tx.ExecContext(ctx, upsert,
			n.Key.String(),
			parentKey,
			n.Name,
			n.ContentType,
			n.URLSegment,
			n.SortOrder,
			n.Published,
			string(groups),
			n.CreateDate.UTC(),
			n.UpdateDate.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save node %s: %w", n.Key, err)
		}

		if _, err := tx.ExecContext(ctx, deleteProps, n.Key.String()); err != nil {
			return fmt.Errorf("failed to clear properties of %s: %w", n.Key, err)
		}

		for i, p := range n.Properties {
			value, err := encodeValue(p)
			if err != nil {
				return fmt.Errorf("node %s: %w", n.Key, err)
			}
			if _, err := tx.ExecContext(ctx, insertProp, n.Key.String(), i, p.Alias, string(p.Editor), value); err != nil {
				return fmt.Errorf("failed to save property %s of %s: %w", p.Alias, n.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Node returns the node with the given key
func (s *Store) Node(ctx context.Context, key uuid.UUID) (*content.Node, error) {
	query := s.dialect.rebind(`SELECT ` + nodeColumns + ` FROM content_nodes WHERE node_key = ?`)

	n, err := scanNode(s.db.QueryRowContext(ctx, query, key.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}

	if err := s.loadProperties(ctx, []*content.Node{n}); err != nil {
		return nil, err
	}
	return n, nil
}

// Roots returns the top level nodes ordered by sort order
func (s *Store) Roots(ctx context.Context) ([]*content.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM content_nodes
		WHERE parent_key IS NULL ORDER BY sort_order, name`
	return s.queryNodes(ctx, query)
}

// Children returns the direct children of key ordered by sort order
func (s *Store) Children(ctx context.Context, key uuid.UUID) ([]*content.Node, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT 1 FROM content_nodes WHERE node_key = ?`), key.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}

	query := s.dialect.rebind(`SELECT ` + nodeColumns + ` FROM content_nodes
		WHERE parent_key = ? ORDER BY sort_order, name`)
	return s.queryNodes(ctx, query, key.String())
}

// Count returns the number of stored nodes
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("database query error: %w", err)
	}
	return n, nil
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...interface{}) ([]*content.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	nodes := make([]*content.Node, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}

	if err := s.loadProperties(ctx, nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// loadProperties fills the properties of nodes with one query
func (s *Store) loadProperties(ctx context.Context, nodes []*content.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	byKey := make(map[string]*content.Node, len(nodes))
	placeholders := make([]string, len(nodes))
	args := make([]interface{}, len(nodes))
	for i, n := range nodes {
		key := n.Key.String()
		byKey[key] = n
		placeholders[i] = "?"
		args[i] = key
	}

	query := s.dialect.rebind(`SELECT node_key, alias, editor, value FROM content_properties
		WHERE node_key IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY node_key, position`)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var nodeKey, alias, editor string
		var raw sql.NullString
		if err := rows.Scan(&nodeKey, &alias, &editor, &raw); err != nil {
			return fmt.Errorf("failed to scan property: %w", err)
		}

		p, err := decodeValue(alias, content.PropertyEditor(editor), raw)
		if err != nil {
			return fmt.Errorf("node %s: %w", nodeKey, err)
		}
		if n, ok := byKey[nodeKey]; ok {
			n.Properties = append(n.Properties, p)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row scanner) (*content.Node, error) {
	var (
		key, name, contentType, segment, groups string
		parentKey                               sql.NullString
		sortOrder                               int
		published                               bool
		createDate, updateDate                  time.Time
	)
	err := row.Scan(&key, &parentKey, &name, &contentType, &segment, &sortOrder,
		&published, &groups, &createDate, &updateDate)
	if err != nil {
		return nil, err
	}

	n := &content.Node{
		Name:        name,
		ContentType: contentType,
		URLSegment:  segment,
		SortOrder:   sortOrder,
		Published:   published,
		CreateDate:  createDate.UTC(),
		UpdateDate:  updateDate.UTC(),
	}
	if n.Key, err = uuid.Parse(key); err != nil {
		return nil, fmt.Errorf("invalid node key %q: %w", key, err)
	}
	if parentKey.Valid {
		parent, err := uuid.Parse(parentKey.String)
		if err != nil {
			return nil, fmt.Errorf("invalid parent key %q: %w", parentKey.String, err)
		}
		n.ParentKey = &parent
	}
	if err := json.Unmarshal([]byte(groups), &n.ProtectedGroups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal protected groups: %w", err)
	}
	if len(n.ProtectedGroups) == 0 {
		n.ProtectedGroups = nil
	}
	return n, nil
}

func encodeValue(p content.Property) (interface{}, error) {
	plain, err := content.EncodeValue(p)
	if err != nil {
		return nil, err
	}
	if plain == nil {
		return nil, nil
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal property %s: %w", p.Alias, err)
	}
	return string(data), nil
}

func decodeValue(alias string, editor content.PropertyEditor, raw sql.NullString) (content.Property, error) {
	p := content.Property{Alias: alias, Editor: editor}
	if !raw.Valid {
		return p, nil
	}

	var plain any
	if err := json.Unmarshal([]byte(raw.String), &plain); err != nil {
		return p, fmt.Errorf("failed to unmarshal property %s: %w", alias, err)
	}
	value, err := content.DecodeValue(alias, editor, plain)
	if err != nil {
		return p, err
	}
	p.Value = value
	return p, nil
}

func nonNil(groups []string) []string {
	if groups == nil {
		return []string{}
	}
	return groups
}
