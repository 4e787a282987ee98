package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/topiclab/internal/infrastructure/config"
	"github.com/nerrad567/topiclab/internal/infrastructure/database"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "topiclab.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := openTestSQLite(t)

	data, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data.Connections)
	assert.Empty(t, data.LastConnectionID)
}

func TestSQLiteStore_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	second := sampleConnection()
	second.ID = "c0"
	second.Name = "Second"
	want := AppData{Connections: []Connection{sampleConnection(), second}, LastConnectionID: "c0"}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.Connections = want.Connections[1:]
	want.LastConnectionID = ""
	require.NoError(t, s.Save(ctx, want))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.Save(ctx, AppData{Connections: []Connection{sampleConnection()}, LastConnectionID: "c1"}))
	require.NoError(t, s.Delete(ctx))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Connections)
	assert.Empty(t, got.LastConnectionID)
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	jsonStore, err := Open(ctx, config.StorageConfig{Backend: config.StorageJSON, DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, jsonStore)
	require.NoError(t, jsonStore.Close())

	sqliteStore, err := Open(ctx, config.StorageConfig{
		Backend: config.StorageSQLite,
		SQLite:  config.DatabaseConfig{Path: filepath.Join(dir, "p.db")},
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sqliteStore)
	require.NoError(t, sqliteStore.Close())

	_, err = Open(ctx, config.StorageConfig{Backend: "etcd"})
	assert.Error(t, err)
}
