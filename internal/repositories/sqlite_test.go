package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/config"
	"github.com/hartmath/woovb/internal/db"
	"github.com/hartmath/woovb/internal/models"
	"github.com/hartmath/woovb/internal/repositories"
)

func setupStore(t *testing.T) repositories.Store {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	store, err := repositories.NewSQLiteStore(gdb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store repositories.Store, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  email[:1],
		Email:     email,
		Password:  "hash",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func createVideo(t *testing.T, store repositories.Store, owner models.User, id string, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:          id,
		OwnerID:     owner.ID,
		Title:       "title " + id,
		Description: "description",
		Filename:    id + ".mp4",
		CreatedAt:   createdAt,
	}
	require.NoError(t, store.Videos().Create(context.Background(), video))
	return video
}

func TestSQLiteUsers_CreateFindAndConflict(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	user := createUser(t, store, "alice@example.com")

	got, err := store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hash", got.Password)
	assert.False(t, got.IsAdmin)

	byID, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	dup := user
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, store.Users().Create(ctx, dup), repositories.ErrConflict)

	_, err = store.Users().FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSQLiteUsers_SetAdminAndList(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	alice := createUser(t, store, "alice@example.com")
	createUser(t, store, "bob@example.com")

	require.NoError(t, store.Users().SetAdmin(ctx, alice.ID, true))
	got, err := store.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	assert.ErrorIs(t, store.Users().SetAdmin(ctx, "missing", true), repositories.ErrNotFound)

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestSQLiteUsers_DeleteRemovesVideosAndSessions(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	alice := createUser(t, store, "alice@example.com")
	bob := createUser(t, store, "bob@example.com")
	createVideo(t, store, alice, "VID-00000000000A", time.Now())
	createVideo(t, store, bob, "VID-00000000000B", time.Now())
	require.NoError(t, store.Sessions().Save(ctx, auth.Session{RefreshToken: "tok", UserID: alice.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, store.Users().Delete(ctx, alice.ID))

	_, err := store.Users().FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = store.Videos().FindByID(ctx, "VID-00000000000A")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = store.Sessions().Find(ctx, "tok")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	remaining, err := store.Videos().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "VID-00000000000B", remaining[0].ID)

	assert.ErrorIs(t, store.Users().Delete(ctx, alice.ID), repositories.ErrNotFound)
}

func TestSQLiteVideos_ListAllNewestFirstWithOwner(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	alice := createUser(t, store, "alice@example.com")
	base := time.Now().UTC().Add(-time.Hour)
	createVideo(t, store, alice, "VID-000000000001", base)
	createVideo(t, store, alice, "VID-000000000002", base.Add(time.Minute))

	videos, err := store.Videos().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "VID-000000000002", videos[0].ID)
	assert.Equal(t, "a", videos[0].OwnerName)
	assert.False(t, videos[0].HasThumbnail())

	owned, err := store.Videos().ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	none, err := store.Videos().ListByOwner(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteVideos_CreateRequiresOwner(t *testing.T) {
	store := setupStore(t)
	err := store.Videos().Create(context.Background(), models.Video{ID: "VID-000000000001", OwnerID: "missing", Filename: "x.mp4"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSQLiteVideos_ThumbnailViewsAndStats(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	alice := createUser(t, store, "alice@example.com")
	video := createVideo(t, store, alice, "VID-000000000001", time.Now())

	require.NoError(t, store.Videos().SetThumbnail(ctx, video.ID, "VID-000000000001.jpg"))
	require.NoError(t, store.Videos().IncrementViews(ctx, video.ID))
	require.NoError(t, store.Videos().IncrementViews(ctx, video.ID))

	got, err := store.Videos().FindByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "VID-000000000001.jpg", got.Thumbnail)
	assert.EqualValues(t, 2, got.Views)

	assert.ErrorIs(t, store.Videos().SetThumbnail(ctx, "missing", "x.jpg"), repositories.ErrNotFound)
	assert.ErrorIs(t, store.Videos().IncrementViews(ctx, "missing"), repositories.ErrNotFound)

	stats, err := store.Videos().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalUsers: 1, TotalVideos: 1, TotalViews: 2}, stats)

	require.NoError(t, store.Videos().Delete(ctx, video.ID))
	assert.ErrorIs(t, store.Videos().Delete(ctx, video.ID), repositories.ErrNotFound)

	stats, err = store.Videos().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalUsers: 1}, stats)
}

func TestSQLiteSessions_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com")

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	session := auth.Session{RefreshToken: "refresh", UserID: alice.ID, ExpiresAt: expires}
	require.NoError(t, store.Sessions().Save(ctx, session))

	later := expires.Add(time.Hour)
	session.ExpiresAt = later
	require.NoError(t, store.Sessions().Save(ctx, session))

	got, err := store.Sessions().Find(ctx, "refresh")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)
	assert.True(t, got.ExpiresAt.Equal(later))

	require.NoError(t, store.Sessions().Delete(ctx, "refresh"))
	assert.ErrorIs(t, store.Sessions().Delete(ctx, "refresh"), auth.ErrSessionNotFound)
}

func TestSQLiteSessions_SavePrunesExpired(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	alice := createUser(t, store, "alice@example.com")
	bob := createUser(t, store, "bob@example.com")

	past := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, store.Sessions().Save(ctx, auth.Session{RefreshToken: "alice-old", UserID: alice.ID, ExpiresAt: past}))
	require.NoError(t, store.Sessions().Save(ctx, auth.Session{RefreshToken: "bob-old", UserID: bob.ID, ExpiresAt: past}))

	require.NoError(t, store.Sessions().Save(ctx, auth.Session{RefreshToken: "alice-new", UserID: alice.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	_, err := store.Sessions().Find(ctx, "alice-old")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	_, err = store.Sessions().Find(ctx, "bob-old")
	assert.NoError(t, err, "other users' sessions are left alone")
	_, err = store.Sessions().Find(ctx, "alice-new")
	assert.NoError(t, err)
}

func TestOpenSQLite(t *testing.T) {
	cfg := config.Config{DatabaseDriver: config.DriverSQLite, SQLitePath: t.TempDir() + "/nested/woovb.db"}
	store, err := repositories.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	user := createUser(t, store, "alice@example.com")
	got, err := store.Users().FindByEmail(context.Background(), user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := repositories.Open(context.Background(), config.Config{DatabaseDriver: "mysql"})
	assert.Error(t, err)
}
