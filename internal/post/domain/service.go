package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrPostNotFound = errors.New("post_not_found")
	ErrInvalidTopic = errors.New("invalid_topic")
)

type Service interface {
	// CreateDraft persists an empty post that a generation job will
	// later fill in.
	CreateDraft(ctx context.Context, subjectID, topic, tone string) (*Post, error)

	// GetOwned returns the post only when it belongs to the subject;
	// otherwise ErrPostNotFound. Ownership failures are reported the
	// same way as missing rows so ids cannot be probed.
	GetOwned(ctx context.Context, subjectID string, id snowflake.ID) (*Post, error)

	List(ctx context.Context, subjectID string, limit int) ([]Post, error)
}
