package tracestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DBPool abstracts the pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore loads observation traces from a wide table: one column per
// node identifier, one row per observation.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

// NewPostgresStore verifies connectivity and returns a store.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping trace database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{
		pool: pool,
		log:  logger.Named("tracestore"),
	}, nil
}

// Load reads the named columns from table into a TraceSet. The table name is
// validated against a conservative identifier pattern because it cannot be
// bound as a query parameter.
func (s *PostgresStore) Load(ctx context.Context, table string, nodes []string) (*TraceSet, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no trace columns requested")
	}
	quoted := make([]string, len(nodes))
	for i, n := range nodes {
		if err := validateIdentifier(n); err != nil {
			return nil, err
		}
		quoted[i] = pgx.Identifier{n}.Sanitize()
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), pgx.Identifier{table}.Sanitize())
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying traces: %w", err)
	}
	defer rows.Close()

	columns := make(map[string][]float64, len(nodes))
	scanned := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scanning trace row: %w", err)
		}
		for i, v := range values {
			f, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("trace column %q: %w", nodes[i], err)
			}
			columns[nodes[i]] = append(columns[nodes[i]], f)
		}
		scanned++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trace rows: %w", err)
	}

	s.log.Debug("Traces loaded from database",
		zap.String("table", table),
		zap.Int("rows", scanned),
		zap.Int("columns", len(nodes)),
	)
	return New(columns)
}

func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return fmt.Errorf("identifier %q contains disallowed character %q", name, r)
		}
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int16:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}
