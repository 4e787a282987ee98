package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/topiclab/internal/infrastructure/database"
	"github.com/nerrad567/topiclab/migrations"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "audit.db"), WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestCreate_FillsDefaults(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := &Entry{Action: ActionConnect, EntityType: EntityConnection, EntityID: "lab", Source: "api"}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(e.ID) != len("aud-")+8 {
		t.Errorf("ID = %q, want aud- prefix and 8 chars", e.ID)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got.Total != 1 || len(got.Entries) != 1 {
		t.Fatalf("List() = %+v, want one entry", got)
	}
	if entry := got.Entries[0]; entry.ID != e.ID || entry.Username != "" || entry.Details != nil {
		t.Errorf("entry = %+v", entry)
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Action: ActionConnect, EntityType: EntityConnection, EntityID: "lab", Username: "ops"},
		{Action: ActionPublish, EntityType: EntitySession, Details: map[string]any{"topic": "a/b", "qos": 1}},
		{Action: ActionPress, EntityType: EntityButton, EntityID: "on", Details: map[string]any{"sent": 3}},
		{Action: ActionPublish, EntityType: EntitySession, Details: map[string]any{"topic": "c/d"}},
	}
	for i := range entries {
		entries[i].Source = "api"
		entries[i].CreatedAt = base.Add(time.Duration(i) * 500 * time.Millisecond)
		if err := repo.Create(ctx, &entries[i]); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 4 || all.Limit != defaultLimit {
		t.Fatalf("Total/Limit = %d/%d", all.Total, all.Limit)
	}
	if all.Entries[0].ID != entries[3].ID || all.Entries[3].ID != entries[0].ID {
		t.Error("entries are not most recent first")
	}
	if all.Entries[3].Username != "ops" {
		t.Errorf("Username = %q", all.Entries[3].Username)
	}

	published, err := repo.List(ctx, Filter{Action: ActionPublish})
	if err != nil {
		t.Fatalf("List(publish) error = %v", err)
	}
	if published.Total != 2 {
		t.Errorf("publish Total = %d, want 2", published.Total)
	}
	if topic := published.Entries[1].Details["topic"]; topic != "a/b" {
		t.Errorf("details topic = %v", topic)
	}

	byID, err := repo.List(ctx, Filter{EntityType: EntityButton, EntityID: "on"})
	if err != nil || byID.Total != 1 {
		t.Errorf("List(button on) = %+v, %v", byID, err)
	}

	page, err := repo.List(ctx, Filter{Limit: 1000, Offset: 3})
	if err != nil {
		t.Fatalf("List(page) error = %v", err)
	}
	if page.Limit != maxLimit || len(page.Entries) != 1 {
		t.Errorf("page = limit %d, %d entries", page.Limit, len(page.Entries))
	}
}

func TestPrune(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, age := range []time.Duration{48 * time.Hour, 36 * time.Hour, time.Hour} {
		e := &Entry{Action: ActionPublish, EntityType: EntitySession, Source: "api", CreatedAt: now.Add(-age)}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	n, err := repo.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() removed %d, want 2", n)
	}

	got, _ := repo.List(ctx, Filter{})
	if got.Total != 1 {
		t.Errorf("Total after prune = %d, want 1", got.Total)
	}
}
