package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteVideosCSV exports a flat per-video table for spreadsheet use.
// The column set mirrors the video_records schema minus comments.
func WriteVideosCSV(path string, recs []VideoRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"aid", "bvid", "title", "publish_time", "duration", "category",
		"view_count", "like_count", "coin_count", "favorite_count",
		"share_count", "reply_count", "danmaku_count", "up_id",
		"collection_time", "task_type",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range recs {
		rec := &recs[i]
		row := []string{
			strconv.FormatInt(rec.Aid, 10),
			rec.Bvid,
			rec.Title,
			rec.PublishTime.Format(timeLayout),
			strconv.FormatInt(rec.Duration, 10),
			rec.Category,
			strconv.FormatInt(rec.ViewCount, 10),
			strconv.FormatInt(rec.LikeCount, 10),
			strconv.FormatInt(rec.CoinCount, 10),
			strconv.FormatInt(rec.FavoriteCount, 10),
			strconv.FormatInt(rec.ShareCount, 10),
			strconv.FormatInt(rec.ReplyCount, 10),
			strconv.FormatInt(rec.DanmakuCount, 10),
			strconv.FormatInt(rec.UpID, 10),
			rec.CollectionTime.Format(timeLayout),
			rec.TaskType,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
