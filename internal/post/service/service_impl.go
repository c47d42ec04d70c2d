package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scriptly/internal/clock"
	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  postdomain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  postdomain.Repository
}

func NewService(p ServiceParam) postdomain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("post.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *service) CreateDraft(ctx context.Context, subjectID, topic, tone string) (*postdomain.Post, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, postdomain.ErrInvalidTopic
	}
	tone = strings.TrimSpace(tone)
	if tone == "" {
		tone = "professional"
	}

	now := s.clock.Now()
	post := &postdomain.Post{
		ID:        s.genID.Generate(),
		SubjectID: subjectID,
		Topic:     topic,
		Tone:      tone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) GetOwned(ctx context.Context, subjectID string, id snowflake.ID) (*postdomain.Post, error) {
	post, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if post == nil || post.SubjectID != subjectID {
		return nil, postdomain.ErrPostNotFound
	}
	return post, nil
}

func (s *service) List(ctx context.Context, subjectID string, limit int) ([]postdomain.Post, error) {
	return s.repo.ListBySubject(ctx, s.db, subjectID, limit)
}
