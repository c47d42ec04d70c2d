package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingEvent is the processed-event ledger row. The unique external
// id is what makes webhook replays no-ops.
type BillingEvent struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	ExternalID  string         `gorm:"uniqueIndex;not null" json:"external_id"`
	EventType   string         `gorm:"not null" json:"event_type"`
	SubjectID   string         `gorm:"not null" json:"subject_id"`
	Payload     datatypes.JSON `json:"payload"`
	ReceivedAt  time.Time      `json:"received_at"`
	ProcessedAt *time.Time     `json:"processed_at"`
}

func (BillingEvent) TableName() string {
	return "billing_events"
}

// ExternalEvent is a provider webhook event after signature
// verification and parsing, reduced to the fields the reconciler acts
// on.
type ExternalEvent struct {
	ExternalID       string
	Type             string
	SubjectID        string
	ProviderStatus   string
	CurrentPeriodEnd *time.Time
	SubscriptionID   string
	CustomerID       string
	RawPayload       []byte
}
