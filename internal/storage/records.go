package storage

import (
	"time"

	"bilitrack-go/internal/biliclient"
)

// Task types stamped onto every stored record.
const (
	TaskDaily   = "daily"
	TaskMonthly = "monthly"
)

// CreatorRecord is one collected UP master snapshot.
type CreatorRecord struct {
	biliclient.Creator
	CollectionTime time.Time `json:"collection_time"`
	TaskType       string    `json:"task_type"`
}

// VideoRecord is one collected video snapshot. ParentAid is set when the
// video was reached through another video rather than the creator's uploads.
type VideoRecord struct {
	biliclient.Video
	CollectionTime time.Time `json:"collection_time"`
	TaskType       string    `json:"task_type"`
	ParentAid      int64     `json:"parent_aid,omitempty"`

	Comments []biliclient.Comment `json:"comments,omitempty"`
}
