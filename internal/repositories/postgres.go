package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/db"
	"github.com/hartmath/woovb/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore serves every repository from one PostgreSQL pool.
type PostgresStore struct {
	pool     db.Pool
	users    *PostgresUserRepository
	videos   *PostgresVideoRepository
	sessions *PostgresSessionStore
}

// NewPostgresStore constructs a Store backed by PostgreSQL. The schema is
// managed by the migrate command.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{
		pool:     pool,
		users:    NewPostgresUserRepository(pool),
		videos:   NewPostgresVideoRepository(pool),
		sessions: NewPostgresSessionStore(pool),
	}
}

func (s *PostgresStore) Users() UserRepository       { return s.users }
func (s *PostgresStore) Videos() VideoRepository     { return s.videos }
func (s *PostgresStore) Sessions() auth.SessionStore { return s.sessions }

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, is_admin, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Username, user.Email, user.Password, user.IsAdmin, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is never caller supplied.
	row := conn.QueryRow(ctx, `
        SELECT id, username, email, password_hash, is_admin, created_at
        FROM users
        WHERE `+column+` = $1
    `, value)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsAdmin, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return user, nil
}

// List returns every user ordered by signup time.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, username, email, password_hash, is_admin, created_at
        FROM users
        ORDER BY created_at ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsAdmin, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Delete removes a user; videos and sessions cascade.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetAdmin grants or revokes admin rights.
func (r *PostgresUserRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, id, admin)
	if err != nil {
		return fmt.Errorf("update user admin flag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const selectVideos = `
        SELECT v.id, v.owner_id, COALESCE(u.username, ''), v.title, v.description, v.filename,
               COALESCE(v.thumbnail, ''), v.views, v.created_at
        FROM videos v
        LEFT JOIN users u ON u.id = v.owner_id
`

// Create stores a new video record. An empty Thumbnail is stored as NULL.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, filename, thumbnail, views, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.Filename, video.Thumbnail, video.Views, video.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var video models.Video
	err = conn.QueryRow(ctx, selectVideos+` WHERE v.id = $1`, id).Scan(
		&video.ID, &video.OwnerID, &video.OwnerName, &video.Title, &video.Description,
		&video.Filename, &video.Thumbnail, &video.Views, &video.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// ListAll returns every video, newest first.
func (r *PostgresVideoRepository) ListAll(ctx context.Context) ([]models.Video, error) {
	return r.query(ctx, selectVideos+` ORDER BY v.created_at DESC, v.id DESC`)
}

// ListByOwner returns the videos uploaded by ownerID, newest first.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	return r.query(ctx, selectVideos+` WHERE v.owner_id = $1 ORDER BY v.created_at DESC, v.id DESC`, ownerID)
}

func (r *PostgresVideoRepository) query(ctx context.Context, sql string, args ...any) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.OwnerID, &video.OwnerName, &video.Title, &video.Description,
			&video.Filename, &video.Thumbnail, &video.Views, &video.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// IncrementViews adds one to the view counter.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	return r.exec(ctx, "increment video views", `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
}

// SetThumbnail records the thumbnail filename for a video.
func (r *PostgresVideoRepository) SetThumbnail(ctx context.Context, id, filename string) error {
	return r.exec(ctx, "update video thumbnail", `UPDATE videos SET thumbnail = NULLIF($2, '') WHERE id = $1`, id, filename)
}

// Delete removes a video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete video", `DELETE FROM videos WHERE id = $1`, id)
}

func (r *PostgresVideoRepository) exec(ctx context.Context, op, sql string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Stats aggregates platform-wide counters.
func (r *PostgresVideoRepository) Stats(ctx context.Context) (models.Stats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.Stats
	err = conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM videos),
            (SELECT COALESCE(SUM(views), 0) FROM videos)
    `).Scan(&stats.TotalUsers, &stats.TotalVideos, &stats.TotalViews)
	if err != nil {
		return models.Stats{}, fmt.Errorf("select stats: %w", err)
	}

	return stats, nil
}

var _ Store = (*PostgresStore)(nil)
var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
