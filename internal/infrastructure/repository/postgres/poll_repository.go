package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/game-night/internal/domain/poll"
	qb "github.com/riskibarqy/game-night/internal/platform/querybuilder"
)

type PollRepository struct {
	db *sqlx.DB
}

func NewPollRepository(db *sqlx.DB) *PollRepository {
	return &PollRepository{db: db}
}

func (r *PollRepository) Create(ctx context.Context, item poll.Poll) error {
	query, args, err := qb.InsertModel("attendance_polls", pollInsertModel{
		SessionID: item.SessionID,
		LeagueID:  item.LeagueID,
		MessageID: item.MessageID,
		ChannelID: item.ChannelID,
		CreatedAt: item.CreatedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert poll query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return poll.ErrPollExists
		}
		return fmt.Errorf("insert poll: %w", err)
	}
	return nil
}

func (r *PollRepository) GetBySession(ctx context.Context, sessionID string) (poll.Poll, bool, error) {
	return r.getOne(ctx, qb.Eq("session_public_id", sessionID))
}

func (r *PollRepository) FindByLeague(ctx context.Context, leagueID string) (poll.Poll, bool, error) {
	return r.getOne(ctx, qb.Eq("league_id", leagueID))
}

func (r *PollRepository) getOne(ctx context.Context, condition qb.Condition) (poll.Poll, bool, error) {
	query, args, err := qb.Select(qb.ColumnsOf(pollTableModel{})...).
		From("attendance_polls").
		Where(condition).
		OrderBy("created_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return poll.Poll{}, false, fmt.Errorf("build get poll query: %w", err)
	}

	var row pollTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return poll.Poll{}, false, nil
		}
		return poll.Poll{}, false, fmt.Errorf("get poll: %w", err)
	}
	return poll.Poll{
		SessionID: row.SessionID,
		LeagueID:  row.LeagueID,
		MessageID: row.MessageID,
		ChannelID: row.ChannelID,
		CreatedAt: row.CreatedAt,
	}, true, nil
}

func (r *PollRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	query, args, err := qb.DeleteFrom("attendance_polls").
		Where(qb.Eq("session_public_id", sessionID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete poll query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	return nil
}

func (r *PollRepository) SessionsWithPoll(ctx context.Context, sessionIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("session_public_id").
		From("attendance_polls").
		Where(qb.InStrings("session_public_id", sessionIDs)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build sessions with poll query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions with poll: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
