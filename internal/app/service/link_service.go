package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sifan077/tinylink/internal/app/model"
	"github.com/sifan077/tinylink/internal/app/repository"
	"github.com/sifan077/tinylink/internal/app/shortcode"
	"go.uber.org/zap"
)

// maxCodeAttempts bounds generate+check rounds for one creation, including
// rounds lost to a concurrent insert of the same code.
const maxCodeAttempts = 10

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	GetLink(ctx context.Context, code string) (*model.Link, error)
	ListLinks(ctx context.Context) ([]model.Link, error)
	DeleteLink(ctx context.Context, code string) error
	ResolveAndRecordClick(ctx context.Context, code string) (string, error)
}

// CodeGenerator produces candidate codes and validates custom ones.
type CodeGenerator interface {
	Generate() string
	Validate(code string) bool
}

// EventPublisher emits link lifecycle notifications.
type EventPublisher interface {
	Publish(event model.LinkEvent) error
}

// LinkServiceDeps groups the collaborators of the link service. Only Links
// is required; nil Cache, Filter and Events disable those features.
type LinkServiceDeps struct {
	Links     repository.LinkRepository
	Generator CodeGenerator
	Cache     repository.LinkCache
	Filter    CodeFilter
	Events    EventPublisher
	Logger    *zap.Logger
	Now       func() time.Time
}

// CreateLinkInput captures data required to create a link. An empty
// CustomCode asks for a generated one.
type CreateLinkInput struct {
	TargetURL  string
	CustomCode string
}

type linkService struct {
	repo      repository.LinkRepository
	generator CodeGenerator
	cache     repository.LinkCache
	filter    CodeFilter
	events    EventPublisher
	logger    *zap.Logger
	now       func() time.Time
	validate  *validator.Validate
}

// NewLinkService returns a service implementation backed by the given dependencies.
func NewLinkService(deps LinkServiceDeps) LinkService {
	generator := deps.Generator
	if generator == nil {
		generator = shortcode.NewGenerator()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &linkService{
		repo:      deps.Links,
		generator: generator,
		cache:     deps.Cache,
		filter:    deps.Filter,
		events:    deps.Events,
		logger:    logger.Named("link_service"),
		now:       now,
		validate:  validator.New(),
	}
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if !s.validTargetURL(input.TargetURL) {
		return nil, ErrInvalidURL
	}

	if input.CustomCode != "" {
		return s.createWithCustomCode(ctx, input.CustomCode, input.TargetURL)
	}
	return s.createWithGeneratedCode(ctx, input.TargetURL)
}

func (s *linkService) createWithCustomCode(ctx context.Context, code, targetURL string) (*model.Link, error) {
	if !s.generator.Validate(code) {
		return nil, ErrInvalidCode
	}

	// Fast feedback only; the unique index decides below.
	taken, err := s.repo.Exists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check code availability: %w", err)
	}
	if taken {
		return nil, ErrCodeExists
	}

	link, err := s.repo.Insert(ctx, code, targetURL)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("create link: %w", err)
	}

	s.afterCreate(ctx, link, "custom")
	return link, nil
}

func (s *linkService) createWithGeneratedCode(ctx context.Context, targetURL string) (*model.Link, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.generator.Generate()

		if s.filter != nil && s.filter.MayContain(code) {
			continue
		}

		taken, err := s.repo.Exists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("check code availability: %w", err)
		}
		if taken {
			continue
		}

		link, err := s.repo.Insert(ctx, code, targetURL)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateCode) {
				s.logger.Warn("generated code taken concurrently, retrying",
					zap.String("code", code),
					zap.Int("attempt", attempt),
				)
				continue
			}
			return nil, fmt.Errorf("create link: %w", err)
		}

		codeGenerationAttempts.Observe(float64(attempt))
		s.afterCreate(ctx, link, "generated")
		return link, nil
	}

	s.logger.Error("exhausted code generation attempts", zap.Int("attempts", maxCodeAttempts))
	return nil, ErrGenerationExhausted
}

func (s *linkService) afterCreate(ctx context.Context, link *model.Link, source string) {
	linksCreatedTotal.WithLabelValues(source).Inc()
	// Overwrite whatever a previous link with this code may have left cached.
	s.cacheTarget(ctx, link.Code, link.TargetURL)
	if s.filter != nil {
		s.filter.Add(link.Code)
	}
	s.publish(model.LinkCreated, link.Code, link.TargetURL)
	s.logger.Info("link created",
		zap.String("code", link.Code),
		zap.String("source", source),
	)
}

func (s *linkService) GetLink(ctx context.Context, code string) (*model.Link, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context) ([]model.Link, error) {
	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) DeleteLink(ctx context.Context, code string) error {
	if err := s.repo.Delete(ctx, code); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	linksDeletedTotal.Inc()
	s.invalidate(ctx, code)
	s.publish(model.LinkDeleted, code, "")
	s.logger.Info("link deleted", zap.String("code", code))
	return nil
}

// ResolveAndRecordClick returns the target for code and counts the click.
// Click accounting is best-effort: once the target is known, a failed
// increment never fails the redirect. The one exception is a cached target
// whose row is gone, which is treated as not found.
func (s *linkService) ResolveAndRecordClick(ctx context.Context, code string) (string, error) {
	target, cached := s.cachedTarget(ctx, code)
	if !cached {
		link, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("resolve link: %w", err)
		}
		target = link.TargetURL
		s.cacheTarget(ctx, code, target)
	}

	if err := s.repo.IncrementClicks(ctx, code, s.now()); err != nil {
		if cached && errors.Is(err, repository.ErrLinkNotFound) {
			s.invalidate(ctx, code)
			return "", fmt.Errorf("resolve link: %w", err)
		}
		clickRecordFailuresTotal.Inc()
		s.logger.Warn("failed to record click", zap.String("code", code), zap.Error(err))
	}

	redirectsTotal.WithLabelValues(cacheLabel(cached)).Inc()
	s.publish(model.LinkClicked, code, "")
	return target, nil
}

func (s *linkService) validTargetURL(raw string) bool {
	if err := s.validate.Var(raw, "required,url"); err != nil {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Host != ""
}

func (s *linkService) cachedTarget(ctx context.Context, code string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	target, ok, err := s.cache.GetTarget(ctx, code)
	if err != nil {
		s.logger.Warn("link cache read failed", zap.String("code", code), zap.Error(err))
		return "", false
	}
	return target, ok
}

func (s *linkService) cacheTarget(ctx context.Context, code, target string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetTarget(ctx, code, target); err != nil {
		s.logger.Warn("link cache write failed", zap.String("code", code), zap.Error(err))
	}
}

func (s *linkService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.logger.Warn("link cache invalidation failed", zap.String("code", code), zap.Error(err))
	}
}

func (s *linkService) publish(eventType model.LinkEventType, code, targetURL string) {
	if s.events == nil {
		return
	}
	event := model.LinkEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Code:      code,
		TargetURL: targetURL,
		Timestamp: s.now(),
	}
	if err := s.events.Publish(event); err != nil {
		s.logger.Warn("failed to publish link event",
			zap.String("type", string(eventType)),
			zap.String("code", code),
			zap.Error(err),
		)
	}
}

func cacheLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
