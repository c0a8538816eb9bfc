package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyh/gyh-api/pkg/config"
)

func TestEnsureSchema(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS nail_studios").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureSchema(context.Background(), db))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS nail_studios").WillReturnError(errors.New("permission denied"))
	assert.ErrorContains(t, EnsureSchema(context.Background(), db), "apply schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaRenamesLegacyColumnsBeforeIndexing(t *testing.T) {
	rename := strings.Index(schemaSQL, "RENAME COLUMN")
	create := strings.Index(schemaSQL, "CREATE TABLE IF NOT EXISTS nail_studios")
	index := strings.Index(schemaSQL, "idx_nail_studios_survey_status")
	require.True(t, rename >= 0 && create >= 0 && index >= 0)
	assert.Less(t, rename, create)
	assert.Less(t, create, index)
	for _, legacy := range []string{"'noTelp', 'no_telp'", "'operatingHours', 'operating_hours'", "'surveyStatus', 'survey_status'", "'createdAt', 'created_at'"} {
		assert.Contains(t, schemaSQL, legacy)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "gyh_database", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=gyh_database sslmode=disable", dsn)
}
