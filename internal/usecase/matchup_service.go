package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/game-night/internal/domain/matchup"
	"github.com/riskibarqy/game-night/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

// MatrixView is the operator-facing rendering of a league's matchup history.
type MatrixView struct {
	LeagueID string
	Players  []string
	Matrix   map[string]map[string]int
}

type MatchupService struct {
	history completedRosterSource
	flight  resilience.SingleFlight[matchup.Matrix]
}

func NewMatchupService(history completedRosterSource) *MatchupService {
	return &MatchupService{history: history}
}

// ComputeMatrix aggregates every complete pod of the league. Concurrent calls for
// the same league share one read of the history.
func (s *MatchupService) ComputeMatrix(ctx context.Context, leagueID string) (matchup.Matrix, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchupService.ComputeMatrix", attribute.String("league_id", leagueID))
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return matchup.Matrix{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	matrix, err, _ := s.flight.Do(leagueID, func() (matchup.Matrix, error) {
		rosters, err := s.history.ListCompletedRosters(ctx, leagueID)
		if err != nil {
			return matchup.Matrix{}, fmt.Errorf("list completed rosters: %w", err)
		}
		return matchup.Build(rosters), nil
	})
	if err != nil {
		recordSpanError(span, err)
		return matchup.Matrix{}, err
	}
	return matrix, nil
}

func (s *MatchupService) MatrixView(ctx context.Context, leagueID string) (MatrixView, error) {
	matrix, err := s.ComputeMatrix(ctx, leagueID)
	if err != nil {
		return MatrixView{}, err
	}
	players := matrix.Players()
	return MatrixView{
		LeagueID: strings.TrimSpace(leagueID),
		Players:  players,
		Matrix:   matrix.Rows(players),
	}, nil
}
