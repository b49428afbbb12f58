package mysql

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-server/internal/infrastructure/config"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	// 実際のDB接続はテスト環境に依存するため、設定のみテスト
	cfg := &config.DatabaseConfig{
		Host:            "localhost",
		Port:            3306,
		User:            "promo",
		Password:        "password",
		Database:        "promo_db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}

	dsn := cfg.DSN()
	assert.NotEmpty(t, dsn)
	assert.Contains(t, dsn, "promo")
	assert.Contains(t, dsn, "password")
	assert.Contains(t, dsn, "promo_db")
}

func TestDB_HealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	wrapped := &DB{DB: db}

	mock.ExpectPing()
	assert.NoError(t, wrapped.HealthCheck())
	assert.NoError(t, mock.ExpectationsWereMet())
}
