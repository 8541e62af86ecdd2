package biliclient

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.bilibili.com"

	pathNav          = "/x/web-interface/nav"
	pathCreatorInfo  = "/x/space/wbi/acc/info"
	pathCreatorVideo = "/x/space/wbi/arc/search"
	pathVideoDetail  = "/x/web-interface/view/detail"
	pathComments     = "/x/v2/reply/wbi/main"
	pathRelationStat = "/x/relation/stat"
	pathCreatorCard  = "/x/web-interface/card"
	pathSearch       = "/x/web-interface/wbi/search/type"

	clientUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	clientReferer   = "https://www.bilibili.com"
)

// Client talks to the bilibili web API with one session cookie. Requests are
// paced by a shared limiter so bursts from page loops do not trip the
// anti-crawl guard.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter

	wbiMu     sync.Mutex
	imgKey    string
	subKey    string
	keyLoaded time.Time
}

// Option mutates client construction.
type Option func(*Client)

// WithBaseURL points the client at a different API host, used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.http.SetBaseURL(base) }
}

// WithInterval sets the minimum spacing between requests.
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// New creates a client bound to the given raw cookie string.
func New(rawCookie string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", clientUserAgent).
			SetHeader("Referer", clientReferer).
			SetHeader("Cookie", rawCookie),
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs one rate-limited request and unwraps the response envelope.
// A non-zero envelope code surfaces as *APIError.
func (c *Client) get(ctx context.Context, path string, params map[string]string) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}

	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request %s: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return gjson.Result{}, fmt.Errorf("request %s: HTTP %d", path, resp.StatusCode())
	}

	body := gjson.ParseBytes(resp.Body())
	if code := body.Get("code").Int(); code != 0 {
		return gjson.Result{}, &APIError{
			Code:    code,
			Message: body.Get("message").String(),
			Path:    path,
		}
	}
	return body.Get("data"), nil
}

// getSigned performs a wbi-signed request, fetching the signing keys lazily.
func (c *Client) getSigned(ctx context.Context, path string, params map[string]string) (gjson.Result, error) {
	imgKey, subKey, err := c.wbiKeys(ctx)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.get(ctx, path, signParams(params, imgKey, subKey, time.Now()))
}

// wbiKeys returns the cached signing keys, refreshing once a day.
func (c *Client) wbiKeys(ctx context.Context) (string, string, error) {
	c.wbiMu.Lock()
	defer c.wbiMu.Unlock()

	if c.imgKey != "" && time.Since(c.keyLoaded) < 24*time.Hour {
		return c.imgKey, c.subKey, nil
	}

	data, err := c.get(ctx, pathNav, nil)
	if err != nil {
		// nav answers code -101 for logged-out sessions but still carries
		// the wbi_img block in the body; fall through only on real errors.
		apiErr, ok := err.(*APIError)
		if !ok {
			return "", "", fmt.Errorf("fetch wbi keys: %w", err)
		}
		log.Debugf("nav returned code %d while fetching wbi keys", apiErr.Code)
		return "", "", fmt.Errorf("fetch wbi keys: %w", err)
	}

	c.imgKey = keyFromURL(data.Get("wbi_img.img_url").String())
	c.subKey = keyFromURL(data.Get("wbi_img.sub_url").String())
	c.keyLoaded = time.Now()
	if c.imgKey == "" || c.subKey == "" {
		return "", "", fmt.Errorf("nav response missing wbi keys")
	}
	return c.imgKey, c.subKey, nil
}

// Ping verifies the session is logged in. Used as the live-use probe when
// acquiring a cookie from the pool.
func (c *Client) Ping(ctx context.Context) error {
	data, err := c.get(ctx, pathNav, nil)
	if err != nil {
		return err
	}
	if !data.Get("isLogin").Bool() {
		return ErrNotLoggedIn
	}
	return nil
}

// CreatorInfo fetches the profile of one UP master, merging the follower
// count from the relation endpoint with a card fallback.
func (c *Client) CreatorInfo(ctx context.Context, mid int64) (*Creator, error) {
	data, err := c.getSigned(ctx, pathCreatorInfo, map[string]string{
		"mid": strconv.FormatInt(mid, 10),
	})
	if err != nil {
		return nil, err
	}

	creator := &Creator{
		Mid:   mid,
		Name:  data.Get("name").String(),
		Sign:  data.Get("sign").String(),
		Level: data.Get("level").Int(),
	}

	if fans, friends, err := c.relationStat(ctx, mid); err == nil {
		creator.FansCount = fans
		creator.FriendCount = friends
	} else {
		log.WithError(err).Warnf("relation stat failed for mid %d, trying card", mid)
		if card, cardErr := c.get(ctx, pathCreatorCard, map[string]string{
			"mid": strconv.FormatInt(mid, 10),
		}); cardErr == nil {
			creator.FansCount = card.Get("card.fans").Int()
			creator.FriendCount = card.Get("card.friend").Int()
		}
	}
	return creator, nil
}

func (c *Client) relationStat(ctx context.Context, mid int64) (fans, friends int64, err error) {
	data, err := c.get(ctx, pathRelationStat, map[string]string{
		"vmid": strconv.FormatInt(mid, 10),
	})
	if err != nil {
		return 0, 0, err
	}
	return data.Get("follower").Int(), data.Get("following").Int(), nil
}

// CreatorVideos fetches one page of a creator's uploads, newest first.
func (c *Client) CreatorVideos(ctx context.Context, mid int64, page, pageSize int, order SearchOrder) ([]Video, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 30
	}
	params := map[string]string{
		"mid": strconv.FormatInt(mid, 10),
		"pn":  strconv.Itoa(page),
		"ps":  strconv.Itoa(pageSize),
	}
	if order != SearchOrderDefault {
		params["order"] = string(order)
	}

	data, err := c.getSigned(ctx, pathCreatorVideo, params)
	if err != nil {
		return nil, 0, err
	}

	total := data.Get("page.count").Int()
	items := data.Get("list.vlist").Array()
	videos := make([]Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, Video{
			Aid:          item.Get("aid").Int(),
			Bvid:         item.Get("bvid").String(),
			Title:        item.Get("title").String(),
			Description:  item.Get("description").String(),
			CoverURL:     item.Get("pic").String(),
			PublishTime:  time.Unix(item.Get("created").Int(), 0),
			Category:     item.Get("typeid").String(),
			ViewCount:    item.Get("play").Int(),
			ReplyCount:   item.Get("comment").Int(),
			DanmakuCount: item.Get("video_review").Int(),
			UpID:         mid,
		})
	}
	return videos, total, nil
}

// VideoDetail fetches the full counter set for one video by bvid.
func (c *Client) VideoDetail(ctx context.Context, bvid string) (*Video, error) {
	data, err := c.get(ctx, pathVideoDetail, map[string]string{"bvid": bvid})
	if err != nil {
		return nil, err
	}

	view := data.Get("View")
	stat := view.Get("stat")
	return &Video{
		Aid:           view.Get("aid").Int(),
		Bvid:          view.Get("bvid").String(),
		Title:         view.Get("title").String(),
		Description:   view.Get("desc").String(),
		CoverURL:      view.Get("pic").String(),
		PublishTime:   time.Unix(view.Get("pubdate").Int(), 0),
		Duration:      view.Get("duration").Int(),
		Category:      view.Get("tname").String(),
		ViewCount:     stat.Get("view").Int(),
		LikeCount:     stat.Get("like").Int(),
		CoinCount:     stat.Get("coin").Int(),
		FavoriteCount: stat.Get("favorite").Int(),
		ShareCount:    stat.Get("share").Int(),
		ReplyCount:    stat.Get("reply").Int(),
		DanmakuCount:  stat.Get("danmaku").Int(),
		UpID:          view.Get("owner.mid").Int(),
	}, nil
}

// VideoComments fetches up to limit hot comments for the given aid.
func (c *Client) VideoComments(ctx context.Context, aid int64, order CommentOrder, limit int) ([]Comment, error) {
	if limit <= 0 {
		limit = 20
	}
	data, err := c.getSigned(ctx, pathComments, map[string]string{
		"oid":  strconv.FormatInt(aid, 10),
		"type": "1",
		"mode": strconv.Itoa(int(order)),
	})
	if err != nil {
		return nil, err
	}

	items := data.Get("replies").Array()
	comments := make([]Comment, 0, limit)
	for _, item := range items {
		if len(comments) >= limit {
			break
		}
		comments = append(comments, Comment{
			Rpid:      item.Get("rpid").Int(),
			Mid:       item.Get("member.mid").Int(),
			Uname:     item.Get("member.uname").String(),
			Message:   item.Get("content.message").String(),
			LikeCount: item.Get("like").Int(),
			CTime:     time.Unix(item.Get("ctime").Int(), 0),
		})
	}
	return comments, nil
}

// SearchVideos runs a keyword search over videos.
func (c *Client) SearchVideos(ctx context.Context, keyword string, page int, order SearchOrder) ([]Video, error) {
	if page <= 0 {
		page = 1
	}
	params := map[string]string{
		"search_type": "video",
		"keyword":     keyword,
		"page":        strconv.Itoa(page),
	}
	if order != SearchOrderDefault {
		params["order"] = string(order)
	}

	data, err := c.getSigned(ctx, pathSearch, params)
	if err != nil {
		return nil, err
	}

	items := data.Get("result").Array()
	videos := make([]Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, Video{
			Aid:          item.Get("aid").Int(),
			Bvid:         item.Get("bvid").String(),
			Title:        item.Get("title").String(),
			Description:  item.Get("description").String(),
			CoverURL:     item.Get("pic").String(),
			PublishTime:  time.Unix(item.Get("pubdate").Int(), 0),
			Duration:     parseDuration(item.Get("duration").String()),
			Category:     item.Get("typename").String(),
			ViewCount:    item.Get("play").Int(),
			DanmakuCount: item.Get("video_review").Int(),
			UpID:         item.Get("mid").Int(),
		})
	}
	return videos, nil
}

// parseDuration converts the "mm:ss" search duration form to seconds.
func parseDuration(raw string) int64 {
	var minutes, seconds int64
	if _, err := fmt.Sscanf(raw, "%d:%d", &minutes, &seconds); err != nil {
		return 0
	}
	return minutes*60 + seconds
}
