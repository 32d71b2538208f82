package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"geocatalog/internal/model"
	"geocatalog/internal/repository"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "geocatalog_db_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}
	return db, cleanup
}

func createUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()

	u := &model.User{Username: username, PasswordHash: "hash"}
	if err := NewUserRepository(db).Insert(context.Background(), u); err != nil {
		t.Fatalf("Failed to insert user %s: %v", username, err)
	}
	return u
}

func createEntity(t *testing.T, db *DB, owner *model.User, title string) *model.GeoEntity {
	t.Helper()

	e := &model.GeoEntity{Title: title, Lat: 23.8103, Lon: 90.4125, UserID: owner.ID}
	if err := NewEntityRepository(db).Insert(context.Background(), e); err != nil {
		t.Fatalf("Failed to insert entity %s: %v", title, err)
	}
	return e
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestDatabase_MigrateIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.migrate(); err != nil {
		t.Fatalf("Second migration should be a no-op, got %v", err)
	}
}

// ========================================
// User Repository Tests
// ========================================

func TestUserRepository_InsertAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewUserRepository(db)

	u := createUser(t, db, "alice")
	if u.ID == 0 {
		t.Fatal("Expected ID to be set")
	}

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if byName.ID != u.ID {
		t.Errorf("Expected ID %d, got %d", u.ID, byName.ID)
	}

	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("Expected alice, got %s", byID.Username)
	}

	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	createUser(t, db, "alice")
	err := NewUserRepository(db).Insert(context.Background(), &model.User{Username: "alice", PasswordHash: "x"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	createEntity(t, db, alice, "Dhaka")
	if _, err := NewTokenRepository(db).GetOrCreate(ctx, alice.ID, "key"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if err := NewUserRepository(db).Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	count, err := NewEntityRepository(db).Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Entities should cascade with their owner, %d left", count)
	}
	if _, err := NewTokenRepository(db).GetByKey(ctx, "key"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Token should cascade with its user, got %v", err)
	}
}

// ========================================
// Entity Repository Tests
// ========================================

func TestEntityRepository_InsertAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewEntityRepository(db)

	alice := createUser(t, db, "alice")
	e := &model.GeoEntity{
		Title:      "Dhaka",
		Lat:        23.8103,
		Lon:        90.4125,
		Properties: model.Properties{"country": "Bangladesh"},
		UserID:     alice.ID,
	}
	if err := repo.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if e.ID == 0 || e.CreatedAt.IsZero() {
		t.Fatal("Expected ID and timestamps to be set")
	}

	got, err := repo.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Dhaka" || got.Lat != 23.8103 || got.Lon != 90.4125 {
		t.Errorf("Unexpected entity: %+v", got)
	}
	if got.Owner != "alice" || got.UserID != alice.ID {
		t.Errorf("Expected owner alice/%d, got %s/%d", alice.ID, got.Owner, got.UserID)
	}
	if got.Properties["country"] != "Bangladesh" {
		t.Errorf("Properties not round-tripped: %v", got.Properties)
	}
	if got.HasImage() {
		t.Error("Entity should have no image")
	}
}

func TestEntityRepository_NullProperties(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	e := createEntity(t, db, alice, "Nowhere")

	got, err := NewEntityRepository(db).GetByID(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Properties != nil {
		t.Errorf("Expected nil properties, got %v", got.Properties)
	}
}

func TestEntityRepository_InsertUnknownOwner(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewEntityRepository(db).Insert(context.Background(), &model.GeoEntity{Title: "x", UserID: 999})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestEntityRepository_ListAndListByOwner(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewEntityRepository(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	createEntity(t, db, alice, "Dhaka")
	createEntity(t, db, bob, "Chittagong")
	createEntity(t, db, alice, "Sylhet")

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 entities, got %d", len(all))
	}
	if all[0].Title != "Dhaka" || all[2].Title != "Sylhet" {
		t.Errorf("List should be ordered by id, got %s..%s", all[0].Title, all[2].Title)
	}

	owned, err := repo.ListByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(owned) != 2 {
		t.Errorf("Expected 2 entities for alice, got %d", len(owned))
	}
}

func TestEntityRepository_ListEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	all, err := NewEntityRepository(db).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", all)
	}
}

func TestEntityRepository_UpdateKeepsOwner(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewEntityRepository(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	e := createEntity(t, db, alice, "Dhaka")

	e.Title = "Dhaka City"
	e.UserID = bob.ID
	e.Image = "new.png"
	if err := repo.Update(ctx, e); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Dhaka City" || got.Image != "new.png" {
		t.Errorf("Update not applied: %+v", got)
	}
	if got.UserID != alice.ID {
		t.Errorf("Owner must not change on update, got user %d", got.UserID)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("updated_at should not precede created_at")
	}
}

func TestEntityRepository_UpdateAndDeleteMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewEntityRepository(db)

	if err := repo.Update(ctx, &model.GeoEntity{ID: 42, Title: "x"}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, 42); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got %v", err)
	}
}

// ========================================
// Token Repository Tests
// ========================================

func TestTokenRepository_GetOrCreateIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewTokenRepository(db)

	alice := createUser(t, db, "alice")

	first, err := repo.GetOrCreate(ctx, alice.ID, "first-key")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := repo.GetOrCreate(ctx, alice.ID, "second-key")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first.Key != "first-key" || second.Key != "first-key" {
		t.Errorf("Expected the existing key to be returned, got %s and %s", first.Key, second.Key)
	}

	got, err := repo.GetByKey(ctx, "first-key")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if got.UserID != alice.ID {
		t.Errorf("Expected user %d, got %d", alice.ID, got.UserID)
	}
}

func TestTokenRepository_DeleteByUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewTokenRepository(db)

	alice := createUser(t, db, "alice")
	if _, err := repo.GetOrCreate(ctx, alice.ID, "k1"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if err := repo.DeleteByUser(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if _, err := repo.GetByKey(ctx, "k1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected revoked token to be gone, got %v", err)
	}
	if err := repo.DeleteByUser(ctx, alice.ID); err != nil {
		t.Errorf("Deleting a missing token should succeed, got %v", err)
	}

	fresh, err := repo.GetOrCreate(ctx, alice.ID, "k2")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if fresh.Key != "k2" {
		t.Errorf("Expected a new key after revocation, got %s", fresh.Key)
	}
}

// ========================================
// Offline Image Repository Tests
// ========================================

func TestOfflineImageRepository_UpsertKeepsOneRowPerPair(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOfflineImageRepository(db)

	alice := createUser(t, db, "alice")
	e := createEntity(t, db, alice, "Dhaka")

	first := &model.OfflineImage{EntityID: e.ID, UserID: alice.ID, LocalPath: "/sd/a.jpg"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	second := &model.OfflineImage{EntityID: e.ID, UserID: alice.ID, LocalPath: "/sd/b.jpg"}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected the same marker row, got ids %d and %d", first.ID, second.ID)
	}

	markers, err := repo.ListByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(markers) != 1 || markers[0].LocalPath != "/sd/b.jpg" {
		t.Errorf("Expected one marker with the latest path, got %+v", markers)
	}
}

func TestOfflineImageRepository_UnknownEntity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	err := NewOfflineImageRepository(db).Upsert(context.Background(),
		&model.OfflineImage{EntityID: 999, UserID: alice.ID, LocalPath: "/x"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOfflineImageRepository_CascadeAndDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOfflineImageRepository(db)

	alice := createUser(t, db, "alice")
	dhaka := createEntity(t, db, alice, "Dhaka")
	sylhet := createEntity(t, db, alice, "Sylhet")

	for _, e := range []*model.GeoEntity{dhaka, sylhet} {
		if err := repo.Upsert(ctx, &model.OfflineImage{EntityID: e.ID, UserID: alice.ID, LocalPath: "/p"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	if err := NewEntityRepository(db).Delete(ctx, dhaka.ID); err != nil {
		t.Fatalf("Delete entity failed: %v", err)
	}
	markers, err := repo.ListByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(markers) != 1 || markers[0].EntityID != sylhet.ID {
		t.Errorf("Marker of deleted entity should cascade, got %+v", markers)
	}

	if err := repo.Delete(ctx, sylhet.ID, alice.ID); err != nil {
		t.Fatalf("Delete marker failed: %v", err)
	}
	if err := repo.Delete(ctx, sylhet.ID, alice.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
