package results

import (
	"math"
	"time"

	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/domain/vote"
)

// velocityWindow is the trailing window used for the votes-per-minute rate,
// regardless of how old the poll is.
const velocityWindow = 5 * time.Minute

type OptionResult struct {
	OptionID   string  `json:"optionId"`
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Snapshot struct {
	PollID                  string         `json:"pollId"`
	Total                   int            `json:"total"`
	Options                 []OptionResult `json:"options"`
	VoteVelocityPerMinLast5 float64        `json:"voteVelocityPerMinLast5"`
	ComputedAt              time.Time      `json:"-"`
}

// Aggregate computes the result snapshot for a poll from its full vote set.
// Pure function of its inputs; options keep the poll's creation order.
func Aggregate(p *poll.Poll, votes []vote.Vote, now time.Time) Snapshot {
	counts := make(map[string]int, len(p.Options))
	recent := 0
	cutoff := now.Add(-velocityWindow)
	for _, v := range votes {
		counts[v.OptionID]++
		if !v.CreatedAt.Before(cutoff) {
			recent++
		}
	}

	total := len(votes)
	opts := make([]OptionResult, 0, len(p.Options))
	for _, o := range p.Options {
		count := counts[o.ID]
		var pct float64
		if total > 0 {
			pct = round2(float64(count) / float64(total) * 100)
		}
		opts = append(opts, OptionResult{
			OptionID:   o.ID,
			Text:       o.Text,
			Count:      count,
			Percentage: pct,
		})
	}

	return Snapshot{
		PollID:                  p.ID,
		Total:                   total,
		Options:                 opts,
		VoteVelocityPerMinLast5: round2(float64(recent) / velocityWindow.Minutes()),
		ComputedAt:              now,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
