package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"classbook/internal/api"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("session template not found")
	ErrInvalidTemplate  = errors.New("invalid session template")
)

type Service interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTemplate, errs[0].Message)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTemplate)
	}
	if req.DayOfWeek == nil || !req.DayOfWeek.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, ErrInvalidWeekday)
	}
	start, err := ParseClockTime(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if !req.Eligibility.Valid() {
		return nil, fmt.Errorf("%w: eligibility must be male, female or mixed", ErrInvalidTemplate)
	}
	if req.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", ErrInvalidTemplate)
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidTemplate)
	}

	var instructor *string
	if req.Instructor != nil {
		if name := strings.TrimSpace(*req.Instructor); name != "" {
			instructor = &name
		}
	}

	return s.repo.CreateTemplate(ctx, Template{
		ID:              uuid.New(),
		Title:           title,
		Instructor:      instructor,
		DayOfWeek:       *req.DayOfWeek,
		StartTime:       start,
		DurationMinutes: duration,
		Eligibility:     req.Eligibility,
		Capacity:        req.Capacity,
	})
}

func (s *service) ListTemplates(ctx context.Context) ([]Template, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	SortTemplates(templates)
	return templates, nil
}

func (s *service) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.repo.GetTemplate(ctx, id)
}
