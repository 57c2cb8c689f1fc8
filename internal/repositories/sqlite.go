package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/models"
)

type userRecord struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsAdmin      bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type videoRecord struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Description string `gorm:"not null;default:''"`
	Filename    string `gorm:"not null"`
	// Thumbnail is NULL until a thumbnail has been written.
	Thumbnail *string
	Views     int64 `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"index"`
}

func (videoRecord) TableName() string { return "videos" }

type sessionRecord struct {
	RefreshToken string `gorm:"primaryKey"`
	UserID       string `gorm:"index;not null"`
	ExpiresAt    time.Time
}

func (sessionRecord) TableName() string { return "sessions" }

// videoRow is the result of the videos/users join.
type videoRow struct {
	ID          string
	OwnerID     string
	OwnerName   string
	Title       string
	Description string
	Filename    string
	Thumbnail   *string
	Views       int64
	CreatedAt   time.Time
}

func (r videoRow) model() models.Video {
	v := models.Video{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		OwnerName:   r.OwnerName,
		Title:       r.Title,
		Description: r.Description,
		Filename:    r.Filename,
		Views:       r.Views,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.Thumbnail != nil {
		v.Thumbnail = *r.Thumbnail
	}
	return v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SQLiteStore serves every repository from a single gorm handle on SQLite.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore migrates the schema and returns a Store. The gorm handle
// should be opened with TranslateError so unique violations map to ErrConflict.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&userRecord{}, &videoRecord{}, &sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Users() UserRepository       { return sqliteUsers{db: s.db} }
func (s *SQLiteStore) Videos() VideoRepository     { return sqliteVideos{db: s.db} }
func (s *SQLiteStore) Sessions() auth.SessionStore { return sqliteSessions{db: s.db} }

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqliteUsers struct {
	db *gorm.DB
}

func (r sqliteUsers) Create(ctx context.Context, user models.User) error {
	rec := userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.Password,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r sqliteUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r sqliteUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r sqliteUsers) first(ctx context.Context, query string, arg string) (models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return userModel(rec), nil
}

func (r sqliteUsers) List(ctx context.Context) ([]models.User, error) {
	var recs []userRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	users := make([]models.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, userModel(rec))
	}
	return users, nil
}

func (r sqliteUsers) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&videoRecord{}).Error; err != nil {
			return fmt.Errorf("delete user videos: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&sessionRecord{}).Error; err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&userRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r sqliteUsers) SetAdmin(ctx context.Context, id string, admin bool) error {
	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Update("is_admin", admin)
	if res.Error != nil {
		return fmt.Errorf("update user admin flag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func userModel(rec userRecord) models.User {
	return models.User{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		Password:  rec.PasswordHash,
		IsAdmin:   rec.IsAdmin,
		CreatedAt: rec.CreatedAt.UTC(),
	}
}

type sqliteVideos struct {
	db *gorm.DB
}

func (r sqliteVideos) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("videos").
		Select("videos.id, videos.owner_id, COALESCE(users.username, '') AS owner_name, videos.title, " +
			"videos.description, videos.filename, videos.thumbnail, videos.views, videos.created_at").
		Joins("LEFT JOIN users ON users.id = videos.owner_id")
}

func (r sqliteVideos) Create(ctx context.Context, video models.Video) error {
	var owners int64
	if err := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", video.OwnerID).Count(&owners).Error; err != nil {
		return fmt.Errorf("check video owner: %w", err)
	}
	if owners == 0 {
		return ErrNotFound
	}

	rec := videoRecord{
		ID:          video.ID,
		OwnerID:     video.OwnerID,
		Title:       video.Title,
		Description: video.Description,
		Filename:    video.Filename,
		Thumbnail:   nullable(video.Thumbnail),
		Views:       video.Views,
		CreatedAt:   video.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (r sqliteVideos) FindByID(ctx context.Context, id string) (models.Video, error) {
	var rows []videoRow
	if err := r.joined(ctx).Where("videos.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	if len(rows) == 0 {
		return models.Video{}, ErrNotFound
	}
	return rows[0].model(), nil
}

func (r sqliteVideos) ListAll(ctx context.Context) ([]models.Video, error) {
	return r.list(r.joined(ctx))
}

func (r sqliteVideos) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	return r.list(r.joined(ctx).Where("videos.owner_id = ?", ownerID))
}

func (r sqliteVideos) list(q *gorm.DB) ([]models.Video, error) {
	var rows []videoRow
	if err := q.Order("videos.created_at DESC").Order("videos.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	videos := make([]models.Video, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, row.model())
	}
	return videos, nil
}

func (r sqliteVideos) IncrementViews(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Model(&videoRecord{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")), "increment video views")
}

func (r sqliteVideos) SetThumbnail(ctx context.Context, id, filename string) error {
	return affected(r.db.WithContext(ctx).Model(&videoRecord{}).Where("id = ?", id).
		Update("thumbnail", nullable(filename)), "update video thumbnail")
}

func (r sqliteVideos) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&videoRecord{}), "delete video")
}

func (r sqliteVideos) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&userRecord{}).Count(&stats.TotalUsers).Error; err != nil {
		return models.Stats{}, fmt.Errorf("count users: %w", err)
	}
	if err := db.Model(&videoRecord{}).Count(&stats.TotalVideos).Error; err != nil {
		return models.Stats{}, fmt.Errorf("count videos: %w", err)
	}
	if err := db.Model(&videoRecord{}).Select("COALESCE(SUM(views), 0)").Scan(&stats.TotalViews).Error; err != nil {
		return models.Stats{}, fmt.Errorf("sum views: %w", err)
	}
	return stats, nil
}

func affected(res *gorm.DB, op string) error {
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type sqliteSessions struct {
	db *gorm.DB
}

func (s sqliteSessions) Save(ctx context.Context, session auth.Session) error {
	rec := sessionRecord{
		RefreshToken: session.RefreshToken,
		UserID:       session.UserID,
		ExpiresAt:    session.ExpiresAt.UTC(),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND expires_at < ?", rec.UserID, time.Now().UTC()).
			Delete(&sessionRecord{}).Error; err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "refresh_token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "expires_at"}),
		}).Create(&rec).Error
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

func (s sqliteSessions) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	var rec sessionRecord
	if err := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("select session: %w", err)
	}
	return auth.Session{RefreshToken: rec.RefreshToken, UserID: rec.UserID, ExpiresAt: rec.ExpiresAt.UTC()}, nil
}

func (s sqliteSessions) Delete(ctx context.Context, refreshToken string) error {
	res := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).Delete(&sessionRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
