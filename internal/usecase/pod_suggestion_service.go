package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/matchup"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/podformation"
	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

type PodSuggestionConfig struct {
	DefaultPodSize int
	Search         podformation.Options
}

// PodSuggestion is a read-only grouping proposal for a session.
type PodSuggestion struct {
	Session       session.Session
	Partition     podformation.Partition
	AlreadyPlaced []string
}

type PodSuggestionService struct {
	sessionRepo    session.Repository
	attendanceRepo attendance.Repository
	podRepo        pod.Repository
	matrices       matrixSource
	cfg            PodSuggestionConfig
	logger         *logging.Logger
}

func NewPodSuggestionService(
	sessionRepo session.Repository,
	attendanceRepo attendance.Repository,
	podRepo pod.Repository,
	matrices matrixSource,
	cfg PodSuggestionConfig,
	logger *logging.Logger,
) *PodSuggestionService {
	if cfg.DefaultPodSize == 0 {
		cfg.DefaultPodSize = podformation.DefaultPodSize
	}
	if cfg.Search.MaxSwaps == 0 && cfg.Search.TimeBudget == 0 {
		cfg.Search = podformation.DefaultOptions()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PodSuggestionService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		podRepo:        podRepo,
		matrices:       matrices,
		cfg:            cfg,
		logger:         logger,
	}
}

// SuggestPods partitions the session's active attendees into pods of podSize.
// A podSize of zero uses the configured default. Players already seated in an
// active or complete pod of the session are left out of the suggestion.
func (s *PodSuggestionService) SuggestPods(ctx context.Context, sessionID string, podSize int) (PodSuggestion, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PodSuggestionService.SuggestPods",
		attribute.String("session_id", sessionID),
		attribute.Int("pod_size", podSize),
	)
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return PodSuggestion{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if podSize == 0 {
		podSize = s.cfg.DefaultPodSize
	}
	if podSize < podformation.MinPodSize || podSize > podformation.MaxPodSize {
		return PodSuggestion{}, fmt.Errorf("%w: pod_size must be between %d and %d", ErrInvalidInput, podformation.MinPodSize, podformation.MaxPodSize)
	}

	item, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return PodSuggestion{}, fmt.Errorf("get session by id: %w", err)
	}
	if !exists {
		return PodSuggestion{}, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}

	var (
		attendees []string
		placed    []string
		matrix    matchup.Matrix
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		ids, err := s.attendanceRepo.ListActiveUserIDs(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list active attendees: %w", err)
		}
		attendees = ids
		return nil
	})
	p.Go(func(ctx context.Context) error {
		ids, err := s.podRepo.ListPlacedPlayerIDs(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list placed players: %w", err)
		}
		placed = ids
		return nil
	})
	p.Go(func(ctx context.Context) error {
		m, err := s.matrices.ComputeMatrix(ctx, item.LeagueID)
		if err != nil {
			return fmt.Errorf("compute matchup matrix: %w", err)
		}
		matrix = m
		return nil
	})
	if err := p.Wait(); err != nil {
		recordSpanError(span, err)
		return PodSuggestion{}, err
	}

	candidates, alreadyPlaced := splitPlaced(attendees, placed)
	partition, err := podformation.Suggest(candidates, matrix, podSize, s.cfg.Search)
	if err != nil {
		if errors.Is(err, podformation.ErrInvalidPodSize) {
			return PodSuggestion{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		recordSpanError(span, err)
		return PodSuggestion{}, fmt.Errorf("form pods: %w", err)
	}

	if partition.BudgetExhausted {
		s.logger.WarnContext(ctx, "pod search budget exhausted",
			"session_id", sessionID,
			"players", partition.TotalPlayers,
			"swaps", partition.Swaps,
		)
	}

	return PodSuggestion{Session: item, Partition: partition, AlreadyPlaced: alreadyPlaced}, nil
}

// splitPlaced keeps arrival order for both halves.
func splitPlaced(attendees, placed []string) ([]string, []string) {
	if len(placed) == 0 {
		return attendees, []string{}
	}
	seated := make(map[string]struct{}, len(placed))
	for _, id := range placed {
		seated[id] = struct{}{}
	}
	free := make([]string, 0, len(attendees))
	taken := make([]string, 0)
	for _, id := range attendees {
		if _, ok := seated[id]; ok {
			taken = append(taken, id)
			continue
		}
		free = append(free, id)
	}
	return free, taken
}
