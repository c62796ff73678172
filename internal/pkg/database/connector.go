package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/config"
	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/persistence"
)

//ConnectorFunc opens a connection to the toll database. The caller owns the returned handle.
type ConnectorFunc func() (*gorm.DB, error)

const (
	postgresConnectAttempts = 5
	postgresConnectBackoff  = 3 * time.Second
)

func gormConfig(log log.FieldLogger) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      false,
		}),
	}
}

//NewConnector returns the connector matching the configured driver
func NewConnector(cfg config.Database, log log.FieldLogger) ConnectorFunc {
	if cfg.Driver == "sqlite" {
		return NewSQLiteConnector(cfg.Path, log)
	}
	return NewPostgreSQLConnector(cfg, log)
}

//NewPostgreSQLConnector returns a ConnectorFunc that connects to an existing PostgreSQL database
//holding the toll schema. The initial connect is retried a few times to let the database come up.
func NewPostgreSQLConnector(cfg config.Database, log log.FieldLogger) ConnectorFunc {
	return func() (*gorm.DB, error) {
		var err error

		for attempt := 1; attempt <= postgresConnectAttempts; attempt++ {
			var db *gorm.DB

			log.Infof("Connecting to database host %s (attempt %d/%d) ...", cfg.Host, attempt, postgresConnectAttempts)

			db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig(log))
			if err == nil {
				return db, nil
			}

			log.Errorf("Failed to connect to database %s: %s", cfg.Host, err.Error())
			if attempt < postgresConnectAttempts {
				time.Sleep(postgresConnectBackoff)
			}
		}

		return nil, fmt.Errorf("unable to connect to database %s: %w", cfg.Host, err)
	}
}

//NewSQLiteConnector returns a ConnectorFunc that opens an SQLite database at path, or a private
//in memory database if path is empty, with foreign keys enforced and the toll schema in place
func NewSQLiteConnector(path string, log log.FieldLogger) ConnectorFunc {
	return func() (*gorm.DB, error) {
		dsn := path
		if dsn == "" {
			dsn = fmt.Sprintf("file:maut-%s?mode=memory&cache=shared", uuid.New().String())
		}

		if strings.Contains(dsn, "?") {
			dsn = dsn + "&_foreign_keys=1"
		} else {
			dsn = dsn + "?_foreign_keys=1"
		}

		log.Infof("Opening sqlite database %s", dsn)

		db, err := gorm.Open(sqlite.Open(dsn), gormConfig(log))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers anyway, and a single connection keeps an
		// in memory database alive for as long as the pool is open
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)

		if err = persistence.CreateSQLiteSchema(db); err != nil {
			return nil, err
		}

		return db, nil
	}
}
