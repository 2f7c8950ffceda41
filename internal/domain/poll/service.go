package poll

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("poll not found")
	ErrQuestionRequired = errors.New("question must be 1-500 characters")
	ErrTooFewOptions    = errors.New("poll must have at least 2 options")
	ErrOptionText       = errors.New("option text must be 1-200 characters")
	ErrDuplicateOption  = errors.New("option texts must be unique")
	ErrClosesInPast     = errors.New("closesAt must be in the future")
)

const (
	maxQuestionLen = 500
	maxOptionLen   = 200
)

type CreateInput struct {
	Question              string
	Options               []string
	ClosesAt              time.Time
	HideResultsUntilClose bool
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Poll, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" || utf8.RuneCountInString(question) > maxQuestionLen {
		return nil, ErrQuestionRequired
	}
	if len(in.Options) < 2 {
		return nil, ErrTooFewOptions
	}

	seen := make(map[string]bool, len(in.Options))
	opts := make([]Option, 0, len(in.Options))
	for _, text := range in.Options {
		text = strings.TrimSpace(text)
		if text == "" || utf8.RuneCountInString(text) > maxOptionLen {
			return nil, ErrOptionText
		}
		if seen[text] {
			return nil, ErrDuplicateOption
		}
		seen[text] = true
		opts = append(opts, Option{ID: uuid.NewString(), Text: text})
	}

	now := s.now()
	if !in.ClosesAt.After(now) {
		return nil, ErrClosesInPast
	}

	p := &Poll{
		ID:                    uuid.NewString(),
		Question:              question,
		ClosesAt:              in.ClosesAt,
		HideResultsUntilClose: in.HideResultsUntilClose,
		CreatedAt:             now,
		Options:               opts,
	}
	for i := range p.Options {
		p.Options[i].PollID = p.ID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Poll, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Poll, error) {
	return s.repo.List(ctx)
}
