package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind is the closed set of background work this system runs. Workers
// dispatch on it; an unknown kind is a terminal failure, not a retry.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindPublish  Kind = "publish"
)

func (k Kind) Valid() bool {
	return k == KindGenerate || k == KindPublish
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one unit of queued work. Claiming flips pending to active
// under a compare-and-set so each job runs on at most one worker at a
// time.
type Job struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	Kind        Kind           `gorm:"type:text;not null" json:"kind"`
	SubjectID   string         `gorm:"not null;index" json:"subject_id"`
	Payload     datatypes.JSON `json:"payload"`
	DedupKey    *string        `gorm:"uniqueIndex" json:"dedup_key,omitempty"`
	VisibleAt   time.Time      `gorm:"not null;index:idx_jobs_claim,priority:2" json:"visible_at"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int            `gorm:"not null;default:3" json:"max_attempts"`
	Status      Status         `gorm:"type:text;not null;default:pending;index:idx_jobs_claim,priority:1" json:"status"`
	ClaimedBy   *string        `gorm:"type:text" json:"claimed_by,omitempty"`
	LastError   *string        `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
}

func (Job) TableName() string {
	return "content_jobs"
}

// GeneratePayload asks a worker to write content for a draft post.
type GeneratePayload struct {
	PostID snowflake.ID `json:"post_id"`
	Topic  string       `json:"topic"`
	Tone   string       `json:"tone"`
}

// PublishPayload asks a worker to execute one scheduled publication.
type PublishPayload struct {
	PublicationID snowflake.ID `json:"publication_id"`
	PostID        snowflake.ID `json:"post_id"`
}

func EncodePayload(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (j *Job) DecodeGenerate() (GeneratePayload, error) {
	var p GeneratePayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return GeneratePayload{}, err
	}
	return p, nil
}

func (j *Job) DecodePublish() (PublishPayload, error) {
	var p PublishPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return PublishPayload{}, err
	}
	return p, nil
}
