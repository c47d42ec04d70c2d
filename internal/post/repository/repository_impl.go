package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() postdomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, post *postdomain.Post) error {
	return db.WithContext(ctx).Create(post).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*postdomain.Post, error) {
	var post postdomain.Post
	err := db.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (r *repository) SetContent(ctx context.Context, db *gorm.DB, id snowflake.ID, content string) error {
	return db.WithContext(ctx).
		Model(&postdomain.Post{}).
		Where("id = ?", id).
		Update("content", content).Error
}

func (r *repository) ListBySubject(ctx context.Context, db *gorm.DB, subjectID string, limit int) ([]postdomain.Post, error) {
	var posts []postdomain.Post
	q := db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
