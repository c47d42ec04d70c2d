package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
)

// ScheduledPublication is a future send of a post. The scheduled to
// sent transition is a compare-and-set: whichever worker wins it owns
// the send, everyone else backs off.
type ScheduledPublication struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	PostID    snowflake.ID `gorm:"not null;index" json:"post_id"`
	SubjectID string       `gorm:"not null;index" json:"subject_id"`
	PublishAt time.Time    `gorm:"not null;index:idx_publications_due,priority:2" json:"publish_at"`
	Status    Status       `gorm:"type:text;not null;default:scheduled;index:idx_publications_due,priority:1" json:"status"`
	SentAt    *time.Time   `json:"sent_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (ScheduledPublication) TableName() string {
	return "scheduled_publications"
}
