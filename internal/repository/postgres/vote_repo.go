package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/johnjomin/OneVote/internal/domain/vote"
)

// voterConstraint is the composite unique index on (poll_id, voter_id).
// Matching it by name keeps unrelated unique violations from being
// misreported as duplicate votes.
const voterConstraint = "votes_poll_id_voter_id_key"

type VoteRepo struct {
	db *sql.DB
}

func NewVoteRepo(db *sql.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

// Create inserts the vote row. The single INSERT is its own transaction; the
// unique constraint is the only duplicate-vote guard.
func (r *VoteRepo) Create(ctx context.Context, v *vote.Vote) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO votes (id, poll_id, option_id, voter_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, v.ID, v.PollID, v.OptionID, v.VoterID, v.CreatedAt)
	if err != nil {
		if isVoterConflict(err) {
			return vote.ErrAlreadyVoted
		}
		return err
	}
	return nil
}

func (r *VoteRepo) ListByPoll(ctx context.Context, pollID string) ([]vote.Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, poll_id, option_id, voter_id, created_at
        FROM votes WHERE poll_id = $1
    `, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []vote.Vote
	for rows.Next() {
		var v vote.Vote
		if err := rows.Scan(&v.ID, &v.PollID, &v.OptionID, &v.VoterID, &v.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func isVoterConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == voterConstraint
	}
	return false
}
