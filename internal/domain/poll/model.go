package poll

import (
	"context"
	"time"
)

type Poll struct {
	ID                    string    `json:"id"`
	Question              string    `json:"question"`
	ClosesAt              time.Time `json:"closesAt"`
	HideResultsUntilClose bool      `json:"hideResultsUntilClose"`
	CreatedAt             time.Time `json:"createdAt"`
	Options               []Option  `json:"options"`
}

type Option struct {
	ID     string `json:"id"`
	PollID string `json:"-"`
	Text   string `json:"text"`
}

func (p *Poll) HasOption(optionID string) bool {
	for _, o := range p.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

func (p *Poll) Closed(now time.Time) bool {
	return !now.Before(p.ClosesAt)
}

type Repository interface {
	Create(ctx context.Context, p *Poll) error
	GetByID(ctx context.Context, id string) (*Poll, error)
	List(ctx context.Context) ([]Poll, error)
}
