package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/db"
)

func TestRegisteredTypes(t *testing.T) {
	types := db.GetRegisteredDBTypes()
	assert.Contains(t, types, configs.SQLitePure)
	assert.Contains(t, types, configs.SQLite)
	assert.Contains(t, types, configs.PostgreSQL)
	assert.Contains(t, types, configs.MySQL)
}

func TestNewPureSQLiteInMemory(t *testing.T) {
	cfg := &configs.DBConfig{
		Type:         configs.SQLitePure,
		Database:     "file:dbtest?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	client, err := db.New(context.Background(), cfg, false)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	var one int
	require.NoError(t, client.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewUnsupportedType(t *testing.T) {
	_, err := db.New(context.Background(), &configs.DBConfig{Type: "oracle", Database: "x"}, false)
	require.Error(t, err)
}
