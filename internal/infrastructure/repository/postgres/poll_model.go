package postgres

import "time"

type pollTableModel struct {
	ID        int64     `db:"id"`
	SessionID string    `db:"session_public_id"`
	LeagueID  string    `db:"league_id"`
	MessageID string    `db:"message_id"`
	ChannelID string    `db:"channel_id"`
	CreatedAt time.Time `db:"created_at"`
}

type pollInsertModel struct {
	SessionID string    `db:"session_public_id"`
	LeagueID  string    `db:"league_id"`
	MessageID string    `db:"message_id"`
	ChannelID string    `db:"channel_id"`
	CreatedAt time.Time `db:"created_at"`
}
