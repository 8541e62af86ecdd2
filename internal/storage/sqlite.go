package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

// DB persists collection snapshots into SQLite. Records are keyed on
// (id, collection_time) so repeated runs accumulate a time series instead of
// overwriting each other.
type DB struct {
	db *sql.DB
}

// OpenDB opens (and migrates) the tracking database at path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS up_master_records (
			mid INTEGER NOT NULL,
			up_name TEXT,
			fans_count INTEGER,
			video_count INTEGER,
			total_views INTEGER,
			friend_count INTEGER,
			collection_time TEXT NOT NULL,
			task_type TEXT,
			PRIMARY KEY (mid, collection_time)
		)`,
		`CREATE TABLE IF NOT EXISTS video_records (
			aid INTEGER NOT NULL,
			bvid TEXT,
			title TEXT,
			description TEXT,
			cover_url TEXT,
			publish_time TEXT,
			duration INTEGER,
			category TEXT,
			view_count INTEGER,
			like_count INTEGER,
			coin_count INTEGER,
			favorite_count INTEGER,
			share_count INTEGER,
			reply_count INTEGER,
			danmaku_count INTEGER,
			up_id INTEGER,
			collection_time TEXT NOT NULL,
			task_type TEXT,
			parent_aid INTEGER,
			PRIMARY KEY (aid, collection_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_video_up_id ON video_records (up_id)`,
		`CREATE INDEX IF NOT EXISTS idx_video_collection_time ON video_records (collection_time)`,
		`CREATE INDEX IF NOT EXISTS idx_up_collection_time ON up_master_records (collection_time)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveCreator upserts one creator snapshot.
func (s *DB) SaveCreator(ctx context.Context, rec *CreatorRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO up_master_records
		(mid, up_name, fans_count, video_count, total_views, friend_count, collection_time, task_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Mid, rec.Name, rec.FansCount, rec.VideoCount, rec.TotalViews,
		rec.FriendCount, rec.CollectionTime.Format(timeLayout), rec.TaskType)
	if err != nil {
		return fmt.Errorf("save creator %d: %w", rec.Mid, err)
	}
	return nil
}

// SaveVideos upserts a batch of video snapshots in one transaction.
func (s *DB) SaveVideos(ctx context.Context, recs []VideoRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO video_records
		(aid, bvid, title, description, cover_url, publish_time, duration, category,
		 view_count, like_count, coin_count, favorite_count, share_count, reply_count,
		 danmaku_count, up_id, collection_time, task_type, parent_aid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare video insert: %w", err)
	}
	defer stmt.Close()

	for i := range recs {
		rec := &recs[i]
		if _, err := stmt.ExecContext(ctx,
			rec.Aid, rec.Bvid, rec.Title, rec.Description, rec.CoverURL,
			rec.PublishTime.Format(timeLayout), rec.Duration, rec.Category,
			rec.ViewCount, rec.LikeCount, rec.CoinCount, rec.FavoriteCount,
			rec.ShareCount, rec.ReplyCount, rec.DanmakuCount, rec.UpID,
			rec.CollectionTime.Format(timeLayout), rec.TaskType, rec.ParentAid,
		); err != nil {
			return fmt.Errorf("save video %d: %w", rec.Aid, err)
		}
	}
	return tx.Commit()
}

// CountVideos returns how many video rows exist for a creator.
func (s *DB) CountVideos(ctx context.Context, upID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM video_records WHERE up_id = ?`, upID).Scan(&count)
	return count, err
}

// LatestCreator returns the most recent snapshot for a creator, if any.
func (s *DB) LatestCreator(ctx context.Context, mid int64) (*CreatorRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT mid, up_name, fans_count, video_count, total_views, friend_count, collection_time, task_type
		FROM up_master_records WHERE mid = ? ORDER BY collection_time DESC LIMIT 1`, mid)

	var rec CreatorRecord
	var collected string
	if err := row.Scan(&rec.Mid, &rec.Name, &rec.FansCount, &rec.VideoCount,
		&rec.TotalViews, &rec.FriendCount, &collected, &rec.TaskType); err != nil {
		return nil, err
	}
	if ts, err := time.Parse(timeLayout, collected); err == nil {
		rec.CollectionTime = ts
	}
	return &rec, nil
}

// Close releases the database handle.
func (s *DB) Close() error {
	return s.db.Close()
}
