// Package postgres loads a columnar.Table into a PostgreSQL table using the
// COPY protocol.
package postgres

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/logger"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "public.cities"

// Config holds PostgreSQL sink configuration.
type Config struct {
	DSN            string        `mapstructure:"dsn" yaml:"dsn" json:"dsn"`
	Table          string        `mapstructure:"table" yaml:"table" json:"table"`
	CreateTable    bool          `mapstructure:"create_table" yaml:"create_table" json:"create_table"`
	Truncate       bool          `mapstructure:"truncate" yaml:"truncate" json:"truncate"`
	MaxConns       int32         `mapstructure:"max_conns" yaml:"max_conns" json:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout" json:"connect_timeout"`
}

// Sink writes tables to one PostgreSQL table.
type Sink struct {
	pool   *pgxpool.Pool
	cfg    Config
	ident  pgx.Identifier
	logger *zap.Logger
}

// New connects to PostgreSQL and checks the connection.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "postgres dsn is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	ident := splitFQN(cfg.Table)
	if len(ident) == 0 || len(ident) > 2 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid table name %q", cfg.Table)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse PostgreSQL connection string")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSink, "failed to create PostgreSQL connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeSink, "PostgreSQL health check failed")
	}

	s := &Sink{
		pool:   pool,
		cfg:    cfg,
		ident:  ident,
		logger: logger.With(zap.String("component", "postgres_sink"), zap.String("table", cfg.Table)),
	}
	s.logger.Info("PostgreSQL connection pool created", zap.Int32("max_conns", poolCfg.MaxConns))
	return s, nil
}

// Close releases the pool.
func (s *Sink) Close() {
	s.pool.Close()
}

// Load copies every row of t into the configured table and returns the
// number of rows written. Missing populations become NULL and NaN
// coordinates are stored as NaN.
func (s *Sink) Load(ctx context.Context, t *columnar.Table) (int64, error) {
	if s.cfg.CreateTable {
		if _, err := s.pool.Exec(ctx, CreateTableSQL(s.ident)); err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeSink, "create table")
		}
	}
	if s.cfg.Truncate {
		if _, err := s.pool.Exec(ctx, "TRUNCATE "+s.ident.Sanitize()); err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeSink, "truncate table")
		}
	}

	start := time.Now()
	n, err := s.pool.CopyFrom(ctx, s.ident, models.CitySchema().Names(), copySource(t))
	if err != nil {
		return n, errors.Wrap(err, errors.ErrorTypeSink, "copy rows").WithDetail("copied", n)
	}
	s.logger.Info("copied rows",
		zap.Int64("rows", n),
		zap.Duration("duration", time.Since(start)))
	return n, nil
}

func copySource(t *columnar.Table) pgx.CopyFromSource {
	return pgx.CopyFromSlice(t.Len(), func(i int) ([]any, error) {
		var pop any
		if v, ok := t.Population.Value(i); ok {
			if v > math.MaxInt64 {
				return nil, errors.Newf(errors.ErrorTypeSink, "population %d at row %d overflows bigint", v, i)
			}
			pop = int64(v)
		}
		return []any{
			t.City.Value(i),
			t.State.Value(i),
			pop,
			t.Latitude.Value(i),
			t.Longitude.Value(i),
		}, nil
	})
}

// CreateTableSQL returns the DDL for a table that can hold a city table.
func CreateTableSQL(ident pgx.Identifier) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(ident.Sanitize())
	b.WriteString(" (")
	for i, f := range models.CitySchema().Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{f.Name}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(pgType(f.Type))
	}
	b.WriteString(")")
	return b.String()
}

func pgType(t models.FieldType) string {
	switch t {
	case models.FieldTypeOptionalUint:
		return "BIGINT"
	case models.FieldTypeFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT NOT NULL"
	}
}

// splitFQN converts "schema.table" into a pgx.Identifier.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}
