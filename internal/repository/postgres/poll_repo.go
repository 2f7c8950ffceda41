package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/johnjomin/OneVote/internal/domain/poll"
)

type PollRepo struct {
	db *sql.DB
}

func NewPollRepo(db *sql.DB) *PollRepo {
	return &PollRepo{db: db}
}

func (r *PollRepo) Create(ctx context.Context, p *poll.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO polls (id, question, closes_at, hide_results_until_close, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, p.ID, p.Question, p.ClosesAt, p.HideResultsUntilClose, p.CreatedAt)
	if err != nil {
		return err
	}

	for i, o := range p.Options {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO options (id, poll_id, text, position)
            VALUES ($1, $2, $3, $4)
        `, o.ID, o.PollID, o.Text, i)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PollRepo) GetByID(ctx context.Context, id string) (*poll.Poll, error) {
	p := &poll.Poll{}
	err := r.db.QueryRowContext(ctx, `
        SELECT id, question, closes_at, hide_results_until_close, created_at
        FROM polls WHERE id = $1
    `, id).Scan(&p.ID, &p.Question, &p.ClosesAt, &p.HideResultsUntilClose, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, poll.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, poll_id, text
        FROM options WHERE poll_id = $1
        ORDER BY position
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o poll.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text); err != nil {
			return nil, err
		}
		p.Options = append(p.Options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *PollRepo) List(ctx context.Context) ([]poll.Poll, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, question, closes_at, hide_results_until_close, created_at
        FROM polls
        ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []poll.Poll
	for rows.Next() {
		var p poll.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.ClosesAt, &p.HideResultsUntilClose, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
