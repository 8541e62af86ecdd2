package scrape

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"bilitrack-go/internal/biliclient"
	"bilitrack-go/internal/config"
	"bilitrack-go/internal/cookie"
	"bilitrack-go/internal/storage"
)

// Processor runs the daily and monthly collection tasks. It acquires a
// session from the cookie pool, walks the configured creators and writes
// snapshots to the database, per-run JSON files and optionally CSV.
type Processor struct {
	cfg  *config.Config
	pool *cookie.Pool
	db   *storage.DB
	json *storage.JSONStore

	// newClient is overridable in tests to point at a local server.
	newClient func(raw string) *biliclient.Client
}

// NewProcessor wires a processor from its collaborators. db may be nil when
// only JSON output is wanted.
func NewProcessor(cfg *config.Config, pool *cookie.Pool, db *storage.DB) *Processor {
	p := &Processor{
		cfg:  cfg,
		pool: pool,
		db:   db,
		json: storage.NewJSONStore(cfg.Storage.DataDir),
	}
	p.newClient = func(raw string) *biliclient.Client {
		interval := time.Duration(cfg.Task.CrawlIntervalSeconds * float64(time.Second))
		return biliclient.New(raw, biliclient.WithInterval(interval))
	}
	return p
}

// Run executes one collection pass of the given task type. The returned
// error is non-nil only for pool exhaustion or a completely empty run;
// per-creator failures are recorded in the report and logged.
func (p *Processor) Run(ctx context.Context, taskType string) (*Report, error) {
	report := newReport(taskType)
	defer func() { report.FinishedAt = time.Now() }()

	var client *biliclient.Client
	used, err := p.pool.TryWithFallback(ctx, 0, func(ctx context.Context, raw string) error {
		candidate := p.newClient(raw)
		if err := candidate.Ping(ctx); err != nil {
			return err
		}
		client = candidate
		return nil
	})
	if err != nil {
		return report, err
	}
	report.CookieUsed = used.Name
	log.Infof("run %s using cookie %s for %s task", report.RunID, used.Name, taskType)

	now := time.Now()
	var allVideos []storage.VideoRecord
	for _, mid := range p.cfg.Task.CreatorIDs {
		if ctx.Err() != nil {
			report.addError(ctx.Err())
			break
		}
		videos, err := p.collectCreator(ctx, client, mid, taskType, now, report)
		if err != nil {
			log.WithError(err).Errorf("collection failed for creator %d", mid)
			report.addError(fmt.Errorf("creator %d: %w", mid, err))
			continue
		}
		allVideos = append(allVideos, videos...)
	}

	if p.cfg.Storage.ExportCSV && len(allVideos) > 0 {
		path := filepath.Join(p.cfg.Storage.DataDir, "export",
			fmt.Sprintf("%s_videos_%s.csv", taskType, now.Format("20060102_150405")))
		if err := storage.WriteVideosCSV(path, allVideos); err != nil {
			log.WithError(err).Warn("csv export failed")
			report.addError(err)
		}
	}

	p.pool.Save(ctx)
	return report, nil
}

// collectCreator gathers one creator's profile and videos.
func (p *Processor) collectCreator(ctx context.Context, client *biliclient.Client, mid int64, taskType string, now time.Time, report *Report) ([]storage.VideoRecord, error) {
	creator, err := client.CreatorInfo(ctx, mid)
	if err != nil {
		return nil, fmt.Errorf("creator info: %w", err)
	}

	videos, err := p.collectVideos(ctx, client, mid, taskType, now)
	if err != nil {
		return nil, fmt.Errorf("creator videos: %w", err)
	}
	creator.VideoCount = int64(len(videos))
	for i := range videos {
		creator.TotalViews += videos[i].ViewCount
	}

	creatorRec := storage.CreatorRecord{
		Creator:        *creator,
		CollectionTime: now,
		TaskType:       taskType,
	}

	if p.db != nil {
		if err := p.db.SaveCreator(ctx, &creatorRec); err != nil {
			report.addError(err)
		}
		if err := p.db.SaveVideos(ctx, videos); err != nil {
			report.addError(err)
		}
	}

	snap := &storage.Snapshot{
		RunID:          report.RunID,
		TaskType:       taskType,
		CollectionTime: now,
		Creator:        creatorRec,
		Videos:         videos,
	}
	if path, err := p.json.Write(snap); err != nil {
		report.addError(err)
	} else {
		log.Infof("wrote snapshot %s", path)
	}

	report.CreatorsCollected++
	report.VideosCollected += len(videos)
	for i := range videos {
		report.CommentsCollected += len(videos[i].Comments)
	}
	return videos, nil
}

// collectVideos pages through a creator's uploads. Daily runs stop at the
// configured time window; monthly runs stop at the per-creator cap.
func (p *Processor) collectVideos(ctx context.Context, client *biliclient.Client, mid int64, taskType string, now time.Time) ([]storage.VideoRecord, error) {
	maxVideos := p.cfg.Task.MaxVideosPerCreator
	if maxVideos <= 0 {
		maxVideos = 50
	}

	var cutoff time.Time
	if taskType == storage.TaskDaily {
		hours := p.cfg.Task.DailyWindowHours
		if hours <= 0 {
			hours = 24
		}
		cutoff = now.Add(-time.Duration(hours) * time.Hour)
	}

	var out []storage.VideoRecord
	for page := 1; len(out) < maxVideos; page++ {
		videos, total, err := client.CreatorVideos(ctx, mid, page, 30, biliclient.SearchOrderPubdate)
		if err != nil {
			return out, err
		}
		if len(videos) == 0 {
			break
		}

		done := false
		for i := range videos {
			v := &videos[i]
			if !cutoff.IsZero() && v.PublishTime.Before(cutoff) {
				done = true
				break
			}
			rec, err := p.enrichVideo(ctx, client, v, taskType, now)
			if err != nil {
				log.WithError(err).Warnf("detail fetch failed for %s, keeping list data", v.Bvid)
				rec = &storage.VideoRecord{Video: *v, CollectionTime: now, TaskType: taskType}
			}
			out = append(out, *rec)
			if len(out) >= maxVideos {
				done = true
				break
			}
		}
		if done || int64(page*30) >= total {
			break
		}
	}
	return out, nil
}

// enrichVideo upgrades a list entry with the full counter set and comments.
func (p *Processor) enrichVideo(ctx context.Context, client *biliclient.Client, v *biliclient.Video, taskType string, now time.Time) (*storage.VideoRecord, error) {
	detail, err := client.VideoDetail(ctx, v.Bvid)
	if err != nil {
		return nil, err
	}
	rec := &storage.VideoRecord{
		Video:          *detail,
		CollectionTime: now,
		TaskType:       taskType,
	}
	if p.cfg.Task.EnableComments {
		comments, err := client.VideoComments(ctx, detail.Aid, biliclient.CommentOrderHot, p.cfg.Task.MaxCommentsPerVideo)
		if err != nil {
			log.WithError(err).Debugf("comment fetch failed for aid %d", detail.Aid)
		} else {
			rec.Comments = comments
		}
	}
	return rec, nil
}
