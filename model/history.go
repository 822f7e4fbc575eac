package model

import "time"

// PlayHistory is an audit record of a track after it leaves the "current"
// slot, whatever the reason. It is written once, asynchronously, and never
// updated — the live queue itself stays purely in-memory.
type PlayHistory struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID     string    `json:"trackId" gorm:"size:64;index;not null"`
	Source      string    `json:"source" gorm:"size:20;not null"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	URL         string    `json:"url" gorm:"size:1024;not null"`
	RequesterID string    `json:"requesterId" gorm:"size:64;index"`
	StartedAt   time.Time `json:"startedAt"`
	EndedAt     time.Time `json:"endedAt"`
	EndReason   string    `json:"endReason" gorm:"size:20"` // completed, skipped, error
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName pins the GORM table name explicitly.
func (PlayHistory) TableName() string {
	return "play_history"
}

const (
	EndReasonCompleted = "completed"
	EndReasonSkipped   = "skipped"
	EndReasonError     = "error"
)
