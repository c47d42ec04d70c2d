package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, post *Post) error

	// FindByID returns nil when no post exists with the given id.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Post, error)

	// SetContent stores the generated text on a post.
	SetContent(ctx context.Context, db *gorm.DB, id snowflake.ID, content string) error

	// ListBySubject returns the subject's posts, newest first.
	ListBySubject(ctx context.Context, db *gorm.DB, subjectID string, limit int) ([]Post, error)
}
