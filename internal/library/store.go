package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bananadb/internal/config"
	"bananadb/internal/logging"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const imageColumns = "id, filename, positive_prompt, positive_prompt_zh, negative_prompt, tags, source_url, category, is_favorited, created_at"

// Store manages image records backed by SQLite.
type Store struct {
	db        *sql.DB
	path      string
	uploadDir string
	logger    *slog.Logger
}

// Open initializes or connects to the library database.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("open library: nil config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath(), cfg.Paths.UploadDir, logger)
}

// OpenPath opens the database at dbPath, storing files under uploadDir.
func OpenPath(dbPath, uploadDir string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:        db,
		path:      dbPath,
		uploadDir: uploadDir,
		logger:    logging.NewComponentLogger(logger, "library"),
	}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// UploadDir returns the directory image files live in.
func (s *Store) UploadDir() string { return s.uploadDir }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Insert records a new image and returns its id.
func (s *Store) Insert(ctx context.Context, img NewImage) (int64, error) {
	if strings.TrimSpace(img.Filename) == "" {
		return 0, errors.New("insert image: filename is required")
	}
	tags := img.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return 0, fmt.Errorf("marshal tags: %w", err)
	}
	category := NormalizeCategory(img.Category)

	res, err := s.execWithRetry(ctx,
		`INSERT INTO images (
            filename, positive_prompt, positive_prompt_zh, negative_prompt,
            tags, source_url, category, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.Filename,
		img.PositivePrompt,
		img.PositivePromptZh,
		img.NegativePrompt,
		string(tagsJSON),
		nullableString(img.SourceURL),
		category,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	s.logger.Info("image recorded",
		logging.Int64(logging.FieldImageID, id),
		logging.String("category", category))
	return id, nil
}

// Get fetches an image by id. It returns nil when the record does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Image, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// List returns every image, newest first.
func (s *Store) List(ctx context.Context) ([]Image, error) {
	return s.query(ctx, `SELECT `+imageColumns+` FROM images ORDER BY created_at DESC, id DESC`)
}

// ListByCategory returns images filed under category, newest first.
func (s *Store) ListByCategory(ctx context.Context, category string) ([]Image, error) {
	return s.query(ctx, `SELECT `+imageColumns+` FROM images WHERE category = ? ORDER BY created_at DESC, id DESC`, category)
}

// ListFavorites returns favourited images, newest first.
func (s *Store) ListFavorites(ctx context.Context) ([]Image, error) {
	return s.query(ctx, `SELECT `+imageColumns+` FROM images WHERE is_favorited = 1 ORDER BY created_at DESC, id DESC`)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	images := []Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return images, nil
}

// Delete removes a record and its file. The file is removed best effort; it
// reports false when no record had that id.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	img, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if img == nil {
		return false, nil
	}
	if _, err := s.execWithRetry(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("delete image: %w", err)
	}
	s.removeFile(img.Filename)
	s.logger.Info("image deleted", logging.Int64(logging.FieldImageID, id))
	return true, nil
}

// DeleteBatch deletes each id and returns how many records were removed.
func (s *Store) DeleteBatch(ctx context.Context, ids []int64) (int, error) {
	deleted := 0
	for _, id := range ids {
		ok, err := s.Delete(ctx, id)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) removeFile(filename string) {
	if s.uploadDir == "" || filename == "" {
		return
	}
	path := filepath.Join(s.uploadDir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(s.logger, "image file not removed", "file_remove_failed",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "orphaned file left in upload directory"),
			logging.Error(err))
	}
}

// CategoryStats returns the image count per stored category.
func (s *Store) CategoryStats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM images GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()
	stats := make(map[string]int)
	for rows.Next() {
		var (
			category sql.NullString
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		key := category.String
		if key == "" {
			key = CategoryOther
		}
		stats[key] += count
	}
	return stats, rows.Err()
}

// Categories returns the fixed categories with counts, preceded by the
// favourites pseudo-category when anything is favourited.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	stats, err := s.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	favorites, err := s.FavoritesCount(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(knownCategories)+1)
	if favorites > 0 {
		out = append(out, Category{ID: CategoryFavorites, Label: "⭐ 收藏", Color: "bg-yellow-500", Count: favorites})
	}
	for _, c := range knownCategories {
		c.Count = stats[c.ID]
		out = append(out, c)
	}
	return out, nil
}

// ToggleFavorite flips the favourite flag and returns the new value.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `UPDATE images SET is_favorited = 1 - is_favorited WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, ErrNotFound
	}
	var flag int
	if err := s.db.QueryRowContext(ctx, `SELECT is_favorited FROM images WHERE id = ?`, id).Scan(&flag); err != nil {
		return false, fmt.Errorf("read favorite: %w", err)
	}
	return flag == 1, nil
}

// FavoritesCount returns how many images are favourited.
func (s *Store) FavoritesCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE is_favorited = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return count, nil
}

// ErrNotFound is returned when an operation targets a missing image.
var ErrNotFound = errors.New("image not found")

func scanImage(scanner interface{ Scan(dest ...any) error }) (*Image, error) {
	var (
		id         int64
		filename   string
		positive   sql.NullString
		positiveZh sql.NullString
		negative   sql.NullString
		tagsRaw    sql.NullString
		sourceURL  sql.NullString
		category   sql.NullString
		favorited  int
		createdRaw string
	)
	if err := scanner.Scan(&id, &filename, &positive, &positiveZh, &negative, &tagsRaw, &sourceURL, &category, &favorited, &createdRaw); err != nil {
		return nil, err
	}
	img := &Image{
		ID:               id,
		Filename:         filename,
		PositivePrompt:   positive.String,
		PositivePromptZh: positiveZh.String,
		NegativePrompt:   negative.String,
		Tags:             decodeTags(tagsRaw.String),
		SourceURL:        sourceURL.String,
		Category:         category.String,
		IsFavorited:      favorited == 1,
		CreatedAt:        parseTime(createdRaw),
	}
	if img.Category == "" {
		img.Category = CategoryOther
	}
	return img, nil
}

func decodeTags(raw string) []string {
	tags := []string{}
	if strings.TrimSpace(raw) == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func parseTime(raw string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
