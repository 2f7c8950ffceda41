package vote

import (
	"context"
	"errors"
	"time"
)

var ErrAlreadyVoted = errors.New("voter already voted in this poll")

type Vote struct {
	ID        string    `json:"id"`
	PollID    string    `json:"pollId"`
	OptionID  string    `json:"optionId"`
	VoterID   string    `json:"voterId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	// Create inserts the vote. Implementations must return ErrAlreadyVoted
	// when the (poll, voter) uniqueness constraint rejects the insert.
	Create(ctx context.Context, v *Vote) error
	ListByPoll(ctx context.Context, pollID string) ([]Vote, error)
}
