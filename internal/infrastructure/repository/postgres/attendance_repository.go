package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/session"
	qb "github.com/riskibarqy/game-night/internal/platform/querybuilder"
)

type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) Get(ctx context.Context, sessionID, userID string) (attendance.Record, bool, error) {
	query, args, err := attendanceSelectBuilder().
		Where(
			qb.Eq("session_public_id", sessionID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return attendance.Record{}, false, fmt.Errorf("build get attendance query: %w", err)
	}

	var row attendanceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return attendance.Record{}, false, nil
		}
		return attendance.Record{}, false, fmt.Errorf("get attendance: %w", err)
	}
	return attendanceFromRow(row), true, nil
}

// Insert relies on the (session, user) unique key; a losing concurrent insert reports false.
func (r *AttendanceRepository) Insert(ctx context.Context, item attendance.Record) (bool, error) {
	insertModel := attendanceInsertModel{
		SessionID:    item.SessionID,
		UserID:       item.UserID,
		IsActive:     item.IsActive,
		UpdatedVia:   string(item.UpdatedVia),
		CheckedInAt:  item.CheckedInAt,
		CheckedOutAt: item.CheckedOutAt,
		UpdatedAt:    item.UpdatedAt,
	}
	query, args, err := qb.InsertModel("session_attendance", insertModel, "ON CONFLICT (session_public_id, user_id) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build insert attendance query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return rowsAffected(result)
}

func (r *AttendanceRepository) SetActive(ctx context.Context, sessionID, userID string, active bool, via attendance.Source, at time.Time) (bool, error) {
	builder := qb.Update("session_attendance").
		Set("is_active", active).
		Set("updated_via", string(via)).
		Set("updated_at", at)
	if active {
		builder = builder.Set("checked_in_at", at).SetExpr("checked_out_at", "NULL")
	} else {
		builder = builder.Set("checked_out_at", at)
	}

	query, args, err := builder.
		Where(
			qb.Eq("session_public_id", sessionID),
			qb.Eq("user_id", userID),
			qb.Eq("is_active", !active),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build set attendance active query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set attendance active=%t: %w", active, err)
	}
	return rowsAffected(result)
}

func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]attendance.Record, error) {
	query, args, err := attendanceSelectBuilder().
		Where(qb.Eq("session_public_id", sessionID)).
		OrderBy("checked_in_at", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list attendance query: %w", err)
	}

	var rows []attendanceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance by session: %w", err)
	}

	out := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, attendanceFromRow(row))
	}
	return out, nil
}

func (r *AttendanceRepository) ListActiveUserIDs(ctx context.Context, sessionID string) ([]string, error) {
	query, args, err := qb.Select("user_id").
		From("session_attendance").
		Where(
			qb.Eq("session_public_id", sessionID),
			qb.Eq("is_active", true),
		).
		OrderBy("checked_in_at", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active attendees query: %w", err)
	}

	out := make([]string, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list active attendees: %w", err)
	}
	return out, nil
}

func (r *AttendanceRepository) CountBySessions(ctx context.Context, sessionIDs []string) (map[string]session.AttendanceCounts, error) {
	out := make(map[string]session.AttendanceCounts, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select(
		"session_public_id",
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE is_active) AS active",
	).
		From("session_attendance").
		Where(qb.InStrings("session_public_id", sessionIDs)).
		GroupBy("session_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count attendance query: %w", err)
	}

	var rows []attendanceCountModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count attendance by sessions: %w", err)
	}
	for _, row := range rows {
		out[row.SessionID] = session.AttendanceCounts{
			Active:   row.Active,
			Total:    row.Total,
			Inactive: row.Total - row.Active,
		}
	}
	return out, nil
}

func attendanceSelectBuilder() *qb.SelectBuilder {
	return qb.Select(qb.ColumnsOf(attendanceTableModel{})...).From("session_attendance")
}

func attendanceFromRow(row attendanceTableModel) attendance.Record {
	return attendance.Record{
		SessionID:    row.SessionID,
		UserID:       row.UserID,
		IsActive:     row.IsActive,
		UpdatedVia:   attendance.Source(row.UpdatedVia),
		CheckedInAt:  row.CheckedInAt,
		CheckedOutAt: row.CheckedOutAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
