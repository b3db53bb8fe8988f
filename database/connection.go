package database

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridoystarlord/cteshape/utils"
)

const applicationName = "cteshape"

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// Config builds the pool configuration from DATABASE_URL. CTESHAPE_MAX_CONNS
// caps the pool size when set.
func Config() (*pgxpool.Config, error) {
	connStr, err := utils.DatabaseURL()
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	if v := utils.Getenv("CTESHAPE_MAX_CONNS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid CTESHAPE_MAX_CONNS %q", v)
		}
		cfg.MaxConns = int32(n)
	}

	return cfg, nil
}

// GetPool returns the process wide connection pool, creating and pinging it
// on first use.
func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		utils.LoadEnv()
		cfg, err := Config()
		if err != nil {
			poolErr = err
			return
		}

		pool, poolErr = pgxpool.NewWithConfig(ctx, cfg)
		if poolErr != nil {
			poolErr = fmt.Errorf("unable to create connection pool: %w", poolErr)
			return
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			pool = nil
			poolErr = fmt.Errorf("unable to ping database: %w", err)
		}
	})

	return pool, poolErr
}

// Acquire returns a dedicated connection from the pool. Temporary tables live
// as long as the session, so callers hold on to it until they are done with
// the tables and then Release it.
func Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	p, err := GetPool(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to acquire connection: %w", err)
	}

	return conn, nil
}

// ClosePool closes the pool if one was created.
func ClosePool() {
	if pool != nil {
		pool.Close()
	}
}
