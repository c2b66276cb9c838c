package postgres

import "time"

type sessionTableModel struct {
	ID            int64      `db:"id"`
	PublicID      string     `db:"public_id"`
	LeagueID      string     `db:"league_id"`
	SessionDate   time.Time  `db:"session_date"`
	Name          string     `db:"name"`
	Status        string     `db:"status"`
	CreatedBy     string     `db:"created_by"`
	RecapPostedAt *time.Time `db:"recap_posted_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type sessionInsertModel struct {
	PublicID    string    `db:"public_id"`
	LeagueID    string    `db:"league_id"`
	SessionDate time.Time `db:"session_date"`
	Name        string    `db:"name"`
	Status      string    `db:"status"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
