package postgres

import (
	"database/sql"
	"time"
)

type podTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	LeagueID  string    `db:"league_id"`
	SessionID string    `db:"session_public_id"`
	CreatorID string    `db:"creator_id"`
	Status    string    `db:"confirmation_status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type podParticipantTableModel struct {
	PodID     string         `db:"pod_public_id"`
	PlayerID  string         `db:"player_id"`
	TurnOrder int            `db:"turn_order"`
	Result    sql.NullString `db:"result"`
}

type podRosterRow struct {
	PodID    string `db:"pod_public_id"`
	PlayerID string `db:"player_id"`
}
