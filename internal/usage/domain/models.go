// Package domain contains the append-only token usage ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageRecord stores one successful generation's token consumption.
// Rows are never mutated or deleted.
type UsageRecord struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	SubjectID        string       `gorm:"type:text;not null;index:idx_usage_records_subject_created" json:"subject_id"`
	PromptTokens     int          `gorm:"not null;default:0" json:"prompt_tokens"`
	CompletionTokens int          `gorm:"not null;default:0" json:"completion_tokens"`
	TotalTokens      int          `gorm:"not null;default:0" json:"total_tokens"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_usage_records_subject_created" json:"created_at"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }
