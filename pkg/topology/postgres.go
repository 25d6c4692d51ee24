/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const (
	selectNodeSQL = `SELECT kind, key, COALESCE(alt_key, ''), device_ip, props
		FROM topology_nodes WHERE kind = $1 AND key = $2`

	listNodesSQL = `SELECT kind, key, COALESCE(alt_key, ''), device_ip, props
		FROM topology_nodes
		WHERE kind = $1 AND ($2 = '' OR device_ip = $2)
		ORDER BY key`

	upsertNodeSQL = `INSERT INTO topology_nodes (kind, key, alt_key, device_ip, props, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, now())
		ON CONFLICT (kind, key) DO UPDATE SET
			alt_key = EXCLUDED.alt_key,
			device_ip = EXCLUDED.device_ip,
			props = EXCLUDED.props,
			updated_at = now()`

	deleteNodeEdgesSQL = `DELETE FROM topology_edges
		WHERE (from_kind = $1 AND from_key = $2) OR (to_kind = $1 AND to_key = $2)`

	deleteNodeSQL = `DELETE FROM topology_nodes WHERE kind = $1 AND key = $2`

	selectEdgesSQL = `SELECT to_kind, to_key, attrs FROM topology_edges
		WHERE from_kind = $1 AND from_key = $2 AND rel = $3
		ORDER BY to_kind, to_key`

	lockOwnerSQL = `SELECT pg_advisory_xact_lock($1)`

	deleteEdgesSQL = `DELETE FROM topology_edges
		WHERE from_kind = $1 AND from_key = $2 AND rel = $3 AND to_kind = $4`

	insertEdgeSQL = `INSERT INTO topology_edges (from_kind, from_key, rel, to_kind, to_key, attrs, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (from_kind, from_key, rel, to_kind, to_key) DO UPDATE SET
			attrs = EXCLUDED.attrs,
			updated_at = now()`
)

// pgxExecutor is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PgxDatabase is satisfied by *pgxpool.Pool.
type PgxDatabase interface {
	pgxExecutor
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PostgresGraph persists the graph in two tables, topology_nodes and
// topology_edges. Run RunMigrations before first use.
type PostgresGraph struct {
	db     PgxDatabase
	logger logger.Logger
}

var _ Graph = (*PostgresGraph)(nil)

// NewPostgresGraph wraps an open pool.
func NewPostgresGraph(db PgxDatabase, log logger.Logger) *PostgresGraph {
	return &PostgresGraph{db: db, logger: log}
}

// Atomic runs fn inside one database transaction.
func (g *PostgresGraph) Atomic(ctx context.Context, fn func(tx GraphTx) error) error {
	return pgx.BeginTxFunc(ctx, g.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&postgresTx{exec: tx})
	})
}

func (g *PostgresGraph) direct() *postgresTx {
	return &postgresTx{exec: g.db}
}

func (g *PostgresGraph) GetNode(ctx context.Context, ref Ref) (*Node, error) {
	return g.direct().GetNode(ctx, ref)
}

func (g *PostgresGraph) ListNodes(ctx context.Context, kind Kind, filter NodeFilter) ([]Node, error) {
	return g.direct().ListNodes(ctx, kind, filter)
}

func (g *PostgresGraph) UpsertNode(ctx context.Context, node *Node) error {
	return g.direct().UpsertNode(ctx, node)
}

func (g *PostgresGraph) Edges(ctx context.Context, from Ref, rel Relation) ([]Edge, error) {
	return g.direct().Edges(ctx, from, rel)
}

func (g *PostgresGraph) DeleteNode(ctx context.Context, ref Ref) error {
	return g.Atomic(ctx, func(tx GraphTx) error { return tx.DeleteNode(ctx, ref) })
}

func (g *PostgresGraph) ReplaceEdges(ctx context.Context, from Ref, rel Relation, toKind Kind, targets []EdgeTarget) error {
	return g.Atomic(ctx, func(tx GraphTx) error { return tx.ReplaceEdges(ctx, from, rel, toKind, targets) })
}

type postgresTx struct {
	exec pgxExecutor
}

func (t *postgresTx) GetNode(ctx context.Context, ref Ref) (*Node, error) {
	n, err := scanNode(t.exec.QueryRow(ctx, selectNodeSQL, ref.Kind, ref.Key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", ref, err)
	}

	return n, nil
}

func (t *postgresTx) ListNodes(ctx context.Context, kind Kind, filter NodeFilter) ([]Node, error) {
	rows, err := t.exec.Query(ctx, listNodesSQL, kind, filter.DeviceIP)
	if err != nil {
		return nil, fmt.Errorf("list %s nodes: %w", kind, err)
	}
	defer rows.Close()

	var out []Node

	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s node: %w", kind, err)
		}

		out = append(out, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s nodes: %w", kind, err)
	}

	return out, nil
}

func (t *postgresTx) UpsertNode(ctx context.Context, node *Node) error {
	if !node.valid() {
		return errEmptyRef
	}

	props := node.Props
	if len(props) == 0 {
		props = json.RawMessage("{}")
	}

	_, err := t.exec.Exec(ctx, upsertNodeSQL, node.Kind, node.Key, node.AltKey, node.DeviceIP, props)
	if err != nil {
		return mapWriteError(fmt.Sprintf("upsert %s", node.Ref), err)
	}

	return nil
}

func (t *postgresTx) DeleteNode(ctx context.Context, ref Ref) error {
	if _, err := t.exec.Exec(ctx, deleteNodeEdgesSQL, ref.Kind, ref.Key); err != nil {
		return fmt.Errorf("delete edges of %s: %w", ref, err)
	}

	if _, err := t.exec.Exec(ctx, deleteNodeSQL, ref.Kind, ref.Key); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}

	return nil
}

func (t *postgresTx) Edges(ctx context.Context, from Ref, rel Relation) ([]Edge, error) {
	rows, err := t.exec.Query(ctx, selectEdgesSQL, from.Kind, from.Key, rel)
	if err != nil {
		return nil, fmt.Errorf("list %s %s edges: %w", from, rel, err)
	}
	defer rows.Close()

	var out []Edge

	for rows.Next() {
		var (
			to    Ref
			attrs []byte
		)

		if err := rows.Scan(&to.Kind, &to.Key, &attrs); err != nil {
			return nil, fmt.Errorf("scan %s %s edge: %w", from, rel, err)
		}

		e := Edge{From: from, Rel: rel, To: to}

		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &e.Attrs); err != nil {
				return nil, fmt.Errorf("decode %s %s edge attrs: %w", from, rel, err)
			}
		}

		if len(e.Attrs) == 0 {
			e.Attrs = nil
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s %s edges: %w", from, rel, err)
	}

	return out, nil
}

func (t *postgresTx) ReplaceEdges(ctx context.Context, from Ref, rel Relation, toKind Kind, targets []EdgeTarget) error {
	if !from.valid() {
		return errEmptyRef
	}

	batch := &pgx.Batch{}

	for _, target := range targets {
		if target.To.Kind != toKind {
			return fmt.Errorf("%w: %s %s edge to %s, want %s", errTargetKind, from, rel, target.To, toKind)
		}

		if !target.To.valid() {
			return errEmptyRef
		}

		attrs, err := json.Marshal(target.Attrs)
		if err != nil {
			return fmt.Errorf("encode %s %s edge attrs: %w", from, rel, err)
		}

		if target.Attrs == nil {
			attrs = []byte("{}")
		}

		batch.Queue(insertEdgeSQL, from.Kind, from.Key, rel, target.To.Kind, target.To.Key, attrs)
	}

	// Concurrent passes over the same owner queue here instead of interleaving.
	if _, err := t.exec.Exec(ctx, lockOwnerSQL, ownerLockKey(from, rel)); err != nil {
		return fmt.Errorf("lock %s %s edges: %w", from, rel, err)
	}

	if _, err := t.exec.Exec(ctx, deleteEdgesSQL, from.Kind, from.Key, rel, toKind); err != nil {
		return fmt.Errorf("clear %s %s edges: %w", from, rel, err)
	}

	return sendBatchExecAll(ctx, batch, t.exec.SendBatch, "topology_edges")
}

func scanNode(row pgx.Row) (*Node, error) {
	var (
		n     Node
		props []byte
	)

	if err := row.Scan(&n.Kind, &n.Key, &n.AltKey, &n.DeviceIP, &props); err != nil {
		return nil, err
	}

	n.Props = props

	return &n, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s: %s", ErrDuplicateKey, op, pgErr.Detail)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func ownerLockKey(from Ref, rel Relation) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(CompositeKey(string(from.Kind), from.Key, string(rel))))

	return int64(h.Sum64()) //nolint:gosec // advisory lock keys are opaque
}
