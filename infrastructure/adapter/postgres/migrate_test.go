package postgres

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oily/oily-api/infrastructure/service/logger"
)

func TestMigrations_Embedded(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	migrator, err := NewMigrator(db, Migrations(), logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, migrator.Versions())

	for _, name := range []string{"001_create_members.sql", "002_create_member_socials.sql"} {
		body, err := fs.ReadFile(Migrations(), name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up")
		assert.Contains(t, string(body), "-- +goose Down")
	}
}

func TestNewMigrator_RejectsDuplicateVersions(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	files := fstest.MapFS{
		"001_create_members.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		"001_again.sql":          {Data: []byte("-- +goose Up\nSELECT 1;\n")},
	}
	_, err = NewMigrator(db, files, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestMigrator_UpReportsDatabaseFailure(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	migrator, err := NewMigrator(db, Migrations(), logger.NewNopLogger())
	require.NoError(t, err)

	// No expectations: the first statement goose issues fails.
	err = migrator.Up(context.Background())
	assert.ErrorContains(t, err, "failed to apply migrations")
}
