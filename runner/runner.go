package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ridoystarlord/cteshape/cte"
	"github.com/ridoystarlord/cteshape/generator"
	"github.com/ridoystarlord/cteshape/introspect"
)

// maxIdentifierLength is PostgreSQL's NAMEDATALEN - 1.
const maxIdentifierLength = 63

// DB is a single database session. Temporary tables belong to the session
// that created them, so a Runner must not be handed a pool.
type DB interface {
	introspect.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Runner materializes table shapes as temporary tables in one session.
type Runner struct {
	db     DB
	logger *slog.Logger
	suffix string
}

func New(db DB, logger *slog.Logger) *Runner {
	return &Runner{
		db:     db,
		logger: logger,
		suffix: strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
	}
}

// Suffix is appended to every table name this runner creates.
func (r *Runner) Suffix() string {
	return r.suffix
}

// SessionName derives a physical name unique to one run. base is cut short
// when the result would exceed the identifier length limit.
func SessionName(base, suffix string) string {
	room := maxIdentifierLength - len(suffix) - 1
	if len(base) > room {
		for room > 0 && !utf8.RuneStart(base[room]) {
			room--
		}
		base = base[:room]
	}
	return base + "_" + suffix
}

// Materialize creates every table as a temporary table under a session-unique
// name, then reads the columns back and checks them against the shape. All
// tables are created in one transaction. The returned tables carry the
// physical names.
func (r *Runner) Materialize(ctx context.Context, tables []*cte.Table) ([]*cte.Table, error) {
	startTime := time.Now()

	renamed := make([]*cte.Table, len(tables))
	for i, t := range tables {
		renamed[i] = t.WithName(SessionName(t.Name(), r.suffix))
	}

	stmts, err := generator.GenerateSQL(renamed)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating %s: %w", renamed[i].Name(), err)
		}
		r.logger.Debug("temporary table created", "table", renamed[i].Name(), "columns", renamed[i].ColumnCount())
	}

	for _, t := range renamed {
		cols, err := introspect.Columns(ctx, tx, t.Name())
		if err != nil {
			return nil, err
		}
		if err := introspect.Verify(t, cols); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.Info("temporary tables materialized",
		"tables", len(renamed),
		"suffix", r.suffix,
		"duration", time.Since(startTime))
	return renamed, nil
}

// Drop removes tables previously returned by Materialize, last created first.
func (r *Runner) Drop(ctx context.Context, tables []*cte.Table) error {
	for _, stmt := range generator.GenerateDropSQL(tables) {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	r.logger.Info("temporary tables dropped", "tables", len(tables))
	return nil
}
