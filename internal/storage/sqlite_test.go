package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bilitrack-go/internal/biliclient"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "tracking.db"))
	if err != nil {
		t.Fatalf("OpenDB returned %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func creatorAt(mid int64, at time.Time) *CreatorRecord {
	return &CreatorRecord{
		Creator: biliclient.Creator{
			Mid:        mid,
			Name:       "up",
			FansCount:  100,
			VideoCount: 3,
			TotalViews: 12345,
		},
		CollectionTime: at,
		TaskType:       TaskDaily,
	}
}

func videoAt(aid, upID int64, at time.Time) VideoRecord {
	return VideoRecord{
		Video: biliclient.Video{
			Aid:         aid,
			Bvid:        "BV1a",
			Title:       "title",
			PublishTime: at.Add(-24 * time.Hour),
			Duration:    213,
			ViewCount:   500,
			LikeCount:   40,
			UpID:        upID,
		},
		CollectionTime: at,
		TaskType:       TaskDaily,
	}
}

func TestCreatorRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	if err := db.SaveCreator(ctx, creatorAt(12345, at)); err != nil {
		t.Fatalf("SaveCreator returned %v", err)
	}

	got, err := db.LatestCreator(ctx, 12345)
	if err != nil {
		t.Fatalf("LatestCreator returned %v", err)
	}
	if got.Mid != 12345 || got.Name != "up" || got.FansCount != 100 {
		t.Errorf("loaded creator = %+v", got)
	}
	if !got.CollectionTime.Equal(at) {
		t.Errorf("collection time = %v, want %v", got.CollectionTime, at)
	}
}

func TestLatestCreatorPicksNewest(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for day := 1; day <= 3; day++ {
		rec := creatorAt(12345, base.AddDate(0, 0, day))
		rec.FansCount = int64(day * 100)
		if err := db.SaveCreator(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.LatestCreator(ctx, 12345)
	if err != nil {
		t.Fatal(err)
	}
	if got.FansCount != 300 {
		t.Errorf("fans = %d, want newest snapshot 300", got.FansCount)
	}
}

func TestLatestCreatorMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LatestCreator(context.Background(), 999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestSaveVideosAccumulatesTimeSeries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	first := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	if err := db.SaveVideos(ctx, []VideoRecord{videoAt(1001, 12345, first)}); err != nil {
		t.Fatal(err)
	}
	// Same aid at a later collection time is a new row, not an overwrite.
	if err := db.SaveVideos(ctx, []VideoRecord{videoAt(1001, 12345, second)}); err != nil {
		t.Fatal(err)
	}
	// Same (aid, collection_time) pair replaces in place.
	if err := db.SaveVideos(ctx, []VideoRecord{videoAt(1001, 12345, second)}); err != nil {
		t.Fatal(err)
	}

	count, err := db.CountVideos(ctx, 12345)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("video rows = %d, want 2", count)
	}
}

func TestSaveVideosEmptyBatch(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveVideos(context.Background(), nil); err != nil {
		t.Errorf("empty batch returned %v", err)
	}
}
