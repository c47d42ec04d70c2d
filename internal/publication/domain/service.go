package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrPublishAtNotFuture rejects schedules at or before now.
	ErrPublishAtNotFuture = errors.New("publish_at_not_future")
	ErrPublicationNotFound = errors.New("publication_not_found")
)

type Service interface {
	// Schedule books a future send for a post the subject owns.
	Schedule(ctx context.Context, subjectID string, postID snowflake.ID, publishAt time.Time) (*ScheduledPublication, error)

	// Cancel removes a publication that has not been picked up yet,
	// along with its queued job if one exists.
	Cancel(ctx context.Context, subjectID string, id snowflake.ID) error

	List(ctx context.Context, subjectID string, limit int) ([]ScheduledPublication, error)
}
