package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Post is a generated piece of content owned by a single subject. The
// content field stays empty until the generation job completes.
type Post struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SubjectID string       `gorm:"index;not null" json:"subject_id"`
	Topic     string       `gorm:"not null" json:"topic"`
	Tone      string       `gorm:"not null" json:"tone"`
	Content   string       `gorm:"default:''" json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}
