package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/session"
	idgen "github.com/riskibarqy/game-night/internal/platform/id"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

type CreatePodInput struct {
	SessionID string
	CreatorID string
	PlayerIDs []string
	TurnOrder []string
}

type UpdatePodStatusInput struct {
	PodID   string
	Status  string
	Results map[string]string
}

type PodService struct {
	sessionRepo    session.Repository
	attendanceRepo attendance.Repository
	podRepo        pod.Repository
	events         EventPublisher
	idGen          idgen.Generator
	logger         *logging.Logger
	now            func() time.Time

	commits resilience.KeyedMutex
}

func NewPodService(
	sessionRepo session.Repository,
	attendanceRepo attendance.Repository,
	podRepo pod.Repository,
	events EventPublisher,
	idGen idgen.Generator,
	logger *logging.Logger,
) *PodService {
	if events == nil {
		events = NopEventPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PodService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		podRepo:        podRepo,
		events:         events,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// CreatePod commits a pod for the session. Commits for the same session run one at a time,
// and the store's placement constraint rejects players that another pod already seats.
func (s *PodService) CreatePod(ctx context.Context, input CreatePodInput) (pod.Pod, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PodService.CreatePod",
		attribute.String("session_id", input.SessionID),
		attribute.Int("players", len(input.PlayerIDs)),
	)
	defer span.End()

	input.SessionID = strings.TrimSpace(input.SessionID)
	if input.SessionID == "" {
		return pod.Pod{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	playerIDs := trimAll(input.PlayerIDs)
	for _, id := range playerIDs {
		if id == "" {
			return pod.Pod{}, fmt.Errorf("%w: player ids must not be empty", ErrInvalidInput)
		}
	}
	seating, err := pod.SeatingOrder(playerIDs, trimAll(input.TurnOrder))
	if err != nil {
		return pod.Pod{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock := s.commits.Lock(input.SessionID)
	defer unlock()

	item, exists, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		return pod.Pod{}, fmt.Errorf("get session by id: %w", err)
	}
	if !exists {
		return pod.Pod{}, fmt.Errorf("%w: session=%s", ErrNotFound, input.SessionID)
	}
	if item.Status == session.StatusCompleted {
		return pod.Pod{}, &StateError{Message: "Cannot create pods for a completed session"}
	}

	active, err := s.attendanceRepo.ListActiveUserIDs(ctx, item.ID)
	if err != nil {
		return pod.Pod{}, fmt.Errorf("list active attendees: %w", err)
	}
	if missing := missingFrom(playerIDs, active); len(missing) > 0 {
		return pod.Pod{}, &RosterError{Message: "Some players are not checked in", NotCheckedIn: missing}
	}

	placed, err := s.podRepo.ListPlacedPlayerIDs(ctx, item.ID)
	if err != nil {
		return pod.Pod{}, fmt.Errorf("list placed players: %w", err)
	}
	if taken := presentIn(playerIDs, placed); len(taken) > 0 {
		return pod.Pod{}, &RosterError{Message: "Some players are already in a pod for this session", AlreadyPlaced: taken}
	}

	podID, err := s.idGen.NewID()
	if err != nil {
		return pod.Pod{}, fmt.Errorf("generate pod id: %w", err)
	}

	now := s.now().UTC()
	created := pod.Pod{
		ID:           podID,
		LeagueID:     item.LeagueID,
		SessionID:    item.ID,
		CreatorID:    strings.TrimSpace(input.CreatorID),
		Status:       pod.StatusActive,
		Participants: make([]pod.Participant, 0, len(seating)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, playerID := range seating {
		created.Participants = append(created.Participants, pod.Participant{PlayerID: playerID, TurnOrder: i + 1})
	}

	if err := s.podRepo.Create(ctx, created); err != nil {
		var conflict *pod.PlacementConflictError
		if errors.As(err, &conflict) {
			return pod.Pod{}, &RosterError{Message: "Some players are already in a pod for this session", AlreadyPlaced: conflict.PlayerIDs}
		}
		recordSpanError(span, err)
		return pod.Pod{}, fmt.Errorf("create pod: %w", err)
	}

	s.logger.InfoContext(ctx, "pod created",
		"pod_id", created.ID,
		"session_id", created.SessionID,
		"league_id", created.LeagueID,
		"players", len(created.Participants),
	)
	s.events.PublishPodCreated(ctx, created)
	return created, nil
}

func (s *PodService) GetPod(ctx context.Context, podID string) (pod.Pod, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PodService.GetPod", attribute.String("pod_id", podID))
	defer span.End()

	podID = strings.TrimSpace(podID)
	if podID == "" {
		return pod.Pod{}, fmt.Errorf("%w: pod id is required", ErrInvalidInput)
	}
	item, exists, err := s.podRepo.GetByID(ctx, podID)
	if err != nil {
		return pod.Pod{}, fmt.Errorf("get pod by id: %w", err)
	}
	if !exists {
		return pod.Pod{}, fmt.Errorf("%w: pod=%s", ErrNotFound, podID)
	}
	return item, nil
}

func (s *PodService) ListSessionPods(ctx context.Context, sessionID string) ([]pod.Pod, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PodService.ListSessionPods", attribute.String("session_id", sessionID))
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	_, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}

	items, err := s.podRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session pods: %w", err)
	}
	return items, nil
}

// UpdatePodStatus completes or cancels an active pod.
func (s *PodService) UpdatePodStatus(ctx context.Context, input UpdatePodStatusInput) (pod.Pod, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PodService.UpdatePodStatus",
		attribute.String("pod_id", input.PodID),
		attribute.String("status", input.Status),
	)
	defer span.End()

	to, ok := pod.ParseStatus(input.Status)
	if !ok {
		return pod.Pod{}, fmt.Errorf("%w: confirmation_status must be one of active, complete, cancelled", ErrInvalidInput)
	}
	results := make(map[string]pod.Result, len(input.Results))
	for playerID, raw := range input.Results {
		result, ok := pod.ParseResult(raw)
		if !ok {
			return pod.Pod{}, fmt.Errorf("%w: result for %s must be one of win, loss, draw", ErrInvalidInput, playerID)
		}
		results[strings.TrimSpace(playerID)] = result
	}

	current, err := s.GetPod(ctx, input.PodID)
	if err != nil {
		return pod.Pod{}, err
	}

	unlock := s.commits.Lock(current.SessionID)
	defer unlock()

	if err := pod.CheckStatusChange(current, to, results); err != nil {
		if errors.Is(err, pod.ErrMissingResult) {
			return pod.Pod{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return pod.Pod{}, &StateError{Message: err.Error()}
	}

	updated, err := s.podRepo.UpdateStatus(ctx, current.ID, to, results, s.now().UTC())
	if err != nil {
		recordSpanError(span, err)
		return pod.Pod{}, fmt.Errorf("update pod status: %w", err)
	}
	if !updated {
		return pod.Pod{}, &StateError{Message: "Pod is no longer active"}
	}

	latest, err := s.GetPod(ctx, current.ID)
	if err != nil {
		return pod.Pod{}, err
	}
	s.logger.InfoContext(ctx, "pod status changed",
		"pod_id", latest.ID,
		"session_id", latest.SessionID,
		"to", string(latest.Status),
	)
	return latest, nil
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.TrimSpace(value))
	}
	return out
}

// missingFrom lists ids absent from pool, in ids order.
func missingFrom(ids, pool []string) []string {
	set := make(map[string]struct{}, len(pool))
	for _, id := range pool {
		set[id] = struct{}{}
	}
	out := make([]string, 0)
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func presentIn(ids, pool []string) []string {
	set := make(map[string]struct{}, len(pool))
	for _, id := range pool {
		set[id] = struct{}{}
	}
	out := make([]string, 0)
	for _, id := range ids {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
