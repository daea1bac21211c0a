package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DB wraps the sql connection pool for the price history store.
type DB struct {
	*sql.DB
	logger *logrus.Logger
}

// NewConnection opens the Postgres pool and verifies connectivity. The ping
// is retried so the service survives a database that comes up slightly after
// it does (container orchestration ordering).
func NewConnection(dbURI string, logger *logrus.Logger) (*DB, error) {
	db, err := sql.Open("postgres", dbURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	err = retry.Do(
		func() error { return db.Ping() },
		retry.Attempts(5),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.WithFields(logrus.Fields{
				"attempt": n + 1,
				"error":   err.Error(),
			}).Warn("Database ping failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully")

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}

// HealthCheck pings the database with a short timeout
func (db *DB) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
