package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/domain/vote"
)

func testPoll() *poll.Poll {
	return &poll.Poll{
		ID:       "p1",
		Question: "q",
		Options: []poll.Option{
			{ID: "opt-a", PollID: "p1", Text: "A"},
			{ID: "opt-b", PollID: "p1", Text: "B"},
		},
	}
}

func castAt(optionID string, at time.Time) vote.Vote {
	return vote.Vote{PollID: "p1", OptionID: optionID, VoterID: "v-" + optionID, CreatedAt: at}
}

func TestAggregateCountsAndPercentages(t *testing.T) {
	now := time.Now()
	votes := []vote.Vote{
		castAt("opt-a", now.Add(-time.Hour)),
		castAt("opt-a", now.Add(-time.Hour)),
		castAt("opt-b", now.Add(-time.Hour)),
	}

	snap := Aggregate(testPoll(), votes, now)

	require.Equal(t, "p1", snap.PollID)
	require.Equal(t, 3, snap.Total)
	require.Len(t, snap.Options, 2)

	assert.Equal(t, "opt-a", snap.Options[0].OptionID)
	assert.Equal(t, 2, snap.Options[0].Count)
	assert.Equal(t, 66.67, snap.Options[0].Percentage)
	assert.Equal(t, "opt-b", snap.Options[1].OptionID)
	assert.Equal(t, 1, snap.Options[1].Count)
	assert.Equal(t, 33.33, snap.Options[1].Percentage)

	sum := 0
	for _, o := range snap.Options {
		sum += o.Count
	}
	assert.Equal(t, snap.Total, sum)
}

func TestAggregateNoVotes(t *testing.T) {
	snap := Aggregate(testPoll(), nil, time.Now())

	assert.Equal(t, 0, snap.Total)
	for _, o := range snap.Options {
		assert.Equal(t, 0, o.Count)
		assert.Equal(t, 0.0, o.Percentage)
	}
	assert.Equal(t, 0.0, snap.VoteVelocityPerMinLast5)
}

func TestAggregateVelocityWindow(t *testing.T) {
	now := time.Now()
	votes := []vote.Vote{
		// inside the trailing 5 minutes
		castAt("opt-a", now.Add(-time.Minute)),
		castAt("opt-a", now.Add(-4*time.Minute)),
		castAt("opt-b", now),
		// outside
		castAt("opt-b", now.Add(-6*time.Minute)),
		castAt("opt-b", now.Add(-time.Hour)),
	}

	snap := Aggregate(testPoll(), votes, now)

	assert.Equal(t, 5, snap.Total)
	// 3 recent votes over a 5 minute window
	assert.Equal(t, 0.6, snap.VoteVelocityPerMinLast5)
}

func TestAggregateKeepsOptionOrder(t *testing.T) {
	p := testPoll()
	now := time.Now()
	votes := []vote.Vote{castAt("opt-b", now)}

	snap := Aggregate(p, votes, now)

	require.Len(t, snap.Options, 2)
	assert.Equal(t, p.Options[0].ID, snap.Options[0].OptionID)
	assert.Equal(t, p.Options[1].ID, snap.Options[1].OptionID)
	assert.Equal(t, 100.0, snap.Options[1].Percentage)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, round2(200.0/3.0))
	assert.Equal(t, 33.33, round2(100.0/3.0))
	assert.Equal(t, 50.0, round2(50))
}
