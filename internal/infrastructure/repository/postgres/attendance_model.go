package postgres

import "time"

type attendanceTableModel struct {
	ID           int64      `db:"id"`
	SessionID    string     `db:"session_public_id"`
	UserID       string     `db:"user_id"`
	IsActive     bool       `db:"is_active"`
	UpdatedVia   string     `db:"updated_via"`
	CheckedInAt  time.Time  `db:"checked_in_at"`
	CheckedOutAt *time.Time `db:"checked_out_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type attendanceInsertModel struct {
	SessionID    string     `db:"session_public_id"`
	UserID       string     `db:"user_id"`
	IsActive     bool       `db:"is_active"`
	UpdatedVia   string     `db:"updated_via"`
	CheckedInAt  time.Time  `db:"checked_in_at"`
	CheckedOutAt *time.Time `db:"checked_out_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type attendanceCountModel struct {
	SessionID string `db:"session_public_id"`
	Total     int    `db:"total"`
	Active    int    `db:"active"`
}
