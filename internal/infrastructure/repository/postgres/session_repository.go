package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/game-night/internal/domain/session"
	qb "github.com/riskibarqy/game-night/internal/platform/querybuilder"
)

const openSessionIndex = "uq_game_sessions_open_per_league"

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, item session.Session) error {
	if err := item.Validate(); err != nil {
		return err
	}

	insertModel := sessionInsertModel{
		PublicID:    item.ID,
		LeagueID:    item.LeagueID,
		SessionDate: item.Date,
		Name:        item.Name,
		Status:      string(item.Status),
		CreatedBy:   item.CreatedBy,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	query, args, err := qb.InsertModel("game_sessions", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert session query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok && (constraint == openSessionIndex || constraint == "") {
			return session.ErrOpenSessionExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (session.Session, bool, error) {
	query, args, err := sessionSelectBuilder().
		Where(qb.Eq("public_id", sessionID)).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build get session query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("get session: %w", err)
	}
	return sessionFromRow(row), true, nil
}

func (r *SessionRepository) FindOpenByLeague(ctx context.Context, leagueID string) (session.Session, bool, error) {
	query, args, err := sessionSelectBuilder().
		Where(
			qb.Eq("league_id", leagueID),
			qb.NotEq("status", string(session.StatusCompleted)),
		).
		OrderBy("created_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build find open session query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("find open session: %w", err)
	}
	return sessionFromRow(row), true, nil
}

func (r *SessionRepository) ListByLeague(ctx context.Context, leagueID string) ([]session.Session, error) {
	query, args, err := sessionSelectBuilder().
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("session_date DESC", "created_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sessions query: %w", err)
	}

	var rows []sessionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions by league: %w", err)
	}

	out := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, sessionFromRow(row))
	}
	return out, nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID string, from, to session.Status, updatedAt time.Time) (bool, error) {
	query, args, err := qb.Update("game_sessions").
		Set("status", string(to)).
		Set("updated_at", updatedAt).
		Where(
			qb.Eq("public_id", sessionID),
			qb.Eq("status", string(from)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update session status query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return false, session.ErrOpenSessionExists
		}
		return false, fmt.Errorf("update session status: %w", err)
	}
	return rowsAffected(result)
}

func (r *SessionRepository) MarkRecapPosted(ctx context.Context, sessionID string, postedAt time.Time) (bool, error) {
	query, args, err := qb.Update("game_sessions").
		Set("recap_posted_at", postedAt).
		Set("status", string(session.StatusCompleted)).
		Set("updated_at", postedAt).
		Where(
			qb.Eq("public_id", sessionID),
			qb.Eq("status", string(session.StatusLocked)),
			qb.IsNull("recap_posted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build mark recap posted query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark recap posted: %w", err)
	}
	return rowsAffected(result)
}

func sessionSelectBuilder() *qb.SelectBuilder {
	return qb.Select(qb.ColumnsOf(sessionTableModel{})...).From("game_sessions")
}

func sessionFromRow(row sessionTableModel) session.Session {
	return session.Session{
		ID:            row.PublicID,
		LeagueID:      row.LeagueID,
		Date:          time.Date(row.SessionDate.Year(), row.SessionDate.Month(), row.SessionDate.Day(), 0, 0, 0, 0, time.UTC),
		Name:          row.Name,
		Status:        session.Status(row.Status),
		CreatedBy:     row.CreatedBy,
		RecapPostedAt: row.RecapPostedAt,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
