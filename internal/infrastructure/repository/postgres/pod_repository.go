package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	qb "github.com/riskibarqy/game-night/internal/platform/querybuilder"
)

type PodRepository struct {
	db *sqlx.DB
}

func NewPodRepository(db *sqlx.DB) *PodRepository {
	return &PodRepository{db: db}
}

// Create writes the pod, its seats and the session placements in one transaction.
// Placements that collide with another pod's seat abort the whole commit.
func (r *PodRepository) Create(ctx context.Context, item pod.Pod) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for pod create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertPodQuery = `
INSERT INTO pods (public_id, league_id, session_public_id, creator_id, confirmation_status, created_at, updated_at)
VALUES (:public_id, :league_id, :session_public_id, :creator_id, :confirmation_status, :created_at, :updated_at)`

	podSQL, podArgs, err := sqlx.Named(insertPodQuery, map[string]any{
		"public_id":           item.ID,
		"league_id":           item.LeagueID,
		"session_public_id":   item.SessionID,
		"creator_id":          item.CreatorID,
		"confirmation_status": string(item.Status),
		"created_at":          item.CreatedAt,
		"updated_at":          item.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind insert pod query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(podSQL), podArgs...); err != nil {
		return fmt.Errorf("insert pod: %w", err)
	}

	seats := qb.InsertInto("pod_participants").Columns("pod_public_id", "player_id", "turn_order")
	placements := qb.InsertInto("session_pod_placements").Columns("session_public_id", "player_id", "pod_public_id", "created_at")
	for _, participant := range item.Participants {
		seats.Values(item.ID, participant.PlayerID, participant.TurnOrder)
		placements.Values(item.SessionID, participant.PlayerID, item.ID, item.CreatedAt)
	}

	seatSQL, seatArgs, err := seats.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert pod participants query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, seatSQL, seatArgs...); err != nil {
		return fmt.Errorf("insert pod participants: %w", err)
	}

	placeSQL, placeArgs, err := placements.
		Suffix("ON CONFLICT (session_public_id, player_id) DO NOTHING RETURNING player_id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert pod placements query: %w", err)
	}
	var placed []string
	if err := tx.SelectContext(ctx, &placed, placeSQL, placeArgs...); err != nil {
		return fmt.Errorf("insert pod placements: %w", err)
	}
	if len(placed) != len(item.Participants) {
		return &pod.PlacementConflictError{PlayerIDs: missingPlayers(item.PlayerIDs(), placed)}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pod create tx: %w", err)
	}
	return nil
}

func (r *PodRepository) GetByID(ctx context.Context, podID string) (pod.Pod, bool, error) {
	query, args, err := podSelectBuilder().
		Where(qb.Eq("public_id", podID)).
		ToSQL()
	if err != nil {
		return pod.Pod{}, false, fmt.Errorf("build get pod query: %w", err)
	}

	var row podTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pod.Pod{}, false, nil
		}
		return pod.Pod{}, false, fmt.Errorf("get pod: %w", err)
	}

	seats, err := r.participantsByPod(ctx, []string{row.PublicID})
	if err != nil {
		return pod.Pod{}, false, err
	}
	return podFromRow(row, seats[row.PublicID]), true, nil
}

func (r *PodRepository) ListBySession(ctx context.Context, sessionID string) ([]pod.Pod, error) {
	query, args, err := podSelectBuilder().
		Where(qb.Eq("session_public_id", sessionID)).
		OrderBy("created_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pods query: %w", err)
	}

	var rows []podTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pods by session: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PublicID)
	}
	seats, err := r.participantsByPod(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]pod.Pod, 0, len(rows))
	for _, row := range rows {
		out = append(out, podFromRow(row, seats[row.PublicID]))
	}
	return out, nil
}

func (r *PodRepository) ListPlacedPlayerIDs(ctx context.Context, sessionID string) ([]string, error) {
	query, args, err := qb.Select("player_id").
		From("session_pod_placements").
		Where(qb.Eq("session_public_id", sessionID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list placed players query: %w", err)
	}

	out := make([]string, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list placed players: %w", err)
	}
	return out, nil
}

func (r *PodRepository) UpdateStatus(ctx context.Context, podID string, to pod.ConfirmationStatus, results map[string]pod.Result, at time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx for pod status: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Update("pods").
		Set("confirmation_status", string(to)).
		Set("updated_at", at).
		Where(
			qb.Eq("public_id", podID),
			qb.Eq("confirmation_status", string(pod.StatusActive)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update pod status query: %w", err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update pod status: %w", err)
	}
	updated, err := rowsAffected(result)
	if err != nil || !updated {
		return false, err
	}

	for playerID, outcome := range results {
		query, args, err := qb.Update("pod_participants").
			Set("result", string(outcome)).
			Where(
				qb.Eq("pod_public_id", podID),
				qb.Eq("player_id", playerID),
			).
			ToSQL()
		if err != nil {
			return false, fmt.Errorf("build update pod result query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return false, fmt.Errorf("update pod result player=%s: %w", playerID, err)
		}
	}

	if to == pod.StatusCancelled {
		query, args, err := qb.DeleteFrom("session_pod_placements").
			Where(qb.Eq("pod_public_id", podID)).
			ToSQL()
		if err != nil {
			return false, fmt.Errorf("build release placements query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return false, fmt.Errorf("release pod placements: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit pod status tx: %w", err)
	}
	return true, nil
}

func (r *PodRepository) ListCompletedRosters(ctx context.Context, leagueID string) ([][]string, error) {
	query, args, err := qb.Select("pp.pod_public_id", "pp.player_id").
		From("pods p JOIN pod_participants pp ON pp.pod_public_id = p.public_id").
		Where(
			qb.Eq("p.league_id", leagueID),
			qb.Eq("p.confirmation_status", string(pod.StatusComplete)),
		).
		OrderBy("p.created_at", "p.public_id", "pp.turn_order").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list completed rosters query: %w", err)
	}

	var rows []podRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list completed rosters: %w", err)
	}

	out := make([][]string, 0)
	current := ""
	for _, row := range rows {
		if row.PodID != current || len(out) == 0 {
			out = append(out, make([]string, 0, pod.MaxPlayers))
			current = row.PodID
		}
		out[len(out)-1] = append(out[len(out)-1], row.PlayerID)
	}
	return out, nil
}

func (r *PodRepository) participantsByPod(ctx context.Context, podIDs []string) (map[string][]pod.Participant, error) {
	out := make(map[string][]pod.Participant, len(podIDs))
	if len(podIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select(qb.ColumnsOf(podParticipantTableModel{})...).
		From("pod_participants").
		Where(qb.InStrings("pod_public_id", podIDs)).
		OrderBy("pod_public_id", "turn_order").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pod participants query: %w", err)
	}

	var rows []podParticipantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pod participants: %w", err)
	}
	for _, row := range rows {
		out[row.PodID] = append(out[row.PodID], pod.Participant{
			PlayerID:  row.PlayerID,
			TurnOrder: row.TurnOrder,
			Result:    pod.Result(row.Result.String),
		})
	}
	return out, nil
}

func podSelectBuilder() *qb.SelectBuilder {
	return qb.Select(qb.ColumnsOf(podTableModel{})...).From("pods")
}

func podFromRow(row podTableModel, seats []pod.Participant) pod.Pod {
	return pod.Pod{
		ID:           row.PublicID,
		LeagueID:     row.LeagueID,
		SessionID:    row.SessionID,
		CreatorID:    row.CreatorID,
		Status:       pod.ConfirmationStatus(row.Status),
		Participants: append([]pod.Participant(nil), seats...),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func missingPlayers(all, placed []string) []string {
	seen := make(map[string]struct{}, len(placed))
	for _, id := range placed {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(all)-len(placed))
	for _, id := range all {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
