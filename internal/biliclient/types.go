package biliclient

import (
	"errors"
	"fmt"
	"time"
)

// SearchOrder controls video search result ordering.
type SearchOrder string

const (
	SearchOrderDefault  SearchOrder = ""
	SearchOrderClick    SearchOrder = "click"
	SearchOrderPubdate  SearchOrder = "pubdate"
	SearchOrderDanmaku  SearchOrder = "dm"
	SearchOrderFavorite SearchOrder = "stow"
)

// CommentOrder controls comment retrieval ordering.
type CommentOrder int

const (
	CommentOrderTime CommentOrder = 0
	CommentOrderLike CommentOrder = 1
	CommentOrderHot  CommentOrder = 2
)

// ErrNotLoggedIn means the session cookie was rejected by the nav endpoint.
var ErrNotLoggedIn = errors.New("session cookie is not logged in")

// APIError carries a non-zero bilibili response envelope code.
type APIError struct {
	Code    int64
	Message string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bilibili api %s returned code %d: %s", e.Path, e.Code, e.Message)
}

// Creator is the profile snapshot of one UP master.
type Creator struct {
	Mid         int64  `json:"mid"`
	Name        string `json:"name"`
	FansCount   int64  `json:"fans_count"`
	FriendCount int64  `json:"friend_count"`
	VideoCount  int64  `json:"video_count"`
	TotalViews  int64  `json:"total_views"`
	Sign        string `json:"sign"`
	Level       int64  `json:"level"`
}

// Video is the metadata and counter snapshot of one video.
type Video struct {
	Aid           int64     `json:"aid"`
	Bvid          string    `json:"bvid"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CoverURL      string    `json:"cover_url"`
	PublishTime   time.Time `json:"publish_time"`
	Duration      int64     `json:"duration"`
	Category      string    `json:"category"`
	ViewCount     int64     `json:"view_count"`
	LikeCount     int64     `json:"like_count"`
	CoinCount     int64     `json:"coin_count"`
	FavoriteCount int64     `json:"favorite_count"`
	ShareCount    int64     `json:"share_count"`
	ReplyCount    int64     `json:"reply_count"`
	DanmakuCount  int64     `json:"danmaku_count"`
	UpID          int64     `json:"up_id"`
}

// Comment is one hot comment under a video.
type Comment struct {
	Rpid      int64     `json:"rpid"`
	Mid       int64     `json:"mid"`
	Uname     string    `json:"uname"`
	Message   string    `json:"message"`
	LikeCount int64     `json:"like_count"`
	CTime     time.Time `json:"ctime"`
}
