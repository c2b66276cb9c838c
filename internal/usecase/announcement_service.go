package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/poll"
	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// AnnouncementService drives the chat-side artifacts of a session: the RSVP poll and the recap.
type AnnouncementService struct {
	sessionRepo session.Repository
	pollRepo    poll.Repository
	podRepo     pod.Repository
	lifecycle   sessionLifecycle
	publisher   PollPublisher
	logger      *logging.Logger
	now         func() time.Time
}

func NewAnnouncementService(
	sessionRepo session.Repository,
	pollRepo poll.Repository,
	podRepo pod.Repository,
	lifecycle sessionLifecycle,
	publisher PollPublisher,
	logger *logging.Logger,
) *AnnouncementService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AnnouncementService{
		sessionRepo: sessionRepo,
		pollRepo:    pollRepo,
		podRepo:     podRepo,
		lifecycle:   lifecycle,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// PostPoll publishes the RSVP poll for a session. A league has at most one open poll.
func (s *AnnouncementService) PostPoll(ctx context.Context, sessionID, customMessage string) (poll.Poll, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnnouncementService.PostPoll", attribute.String("session_id", sessionID))
	defer span.End()

	item, err := s.getSession(ctx, sessionID)
	if err != nil {
		return poll.Poll{}, err
	}

	if _, exists, err := s.pollRepo.GetBySession(ctx, item.ID); err != nil {
		return poll.Poll{}, fmt.Errorf("get session poll: %w", err)
	} else if exists {
		return poll.Poll{}, &ConflictError{Message: "A poll has already been posted for this session"}
	}

	other, exists, err := s.pollRepo.FindByLeague(ctx, item.LeagueID)
	if err != nil {
		return poll.Poll{}, fmt.Errorf("find league poll: %w", err)
	}
	if exists && other.SessionID != item.ID {
		return poll.Poll{}, &ConflictError{
			Message:           "Another session in this league already has an open poll",
			ExistingSessionID: other.SessionID,
		}
	}

	receipt, err := s.publisher.PostPoll(ctx, PollRequest{Session: item, CustomMessage: strings.TrimSpace(customMessage)})
	if err != nil {
		recordSpanError(span, err)
		s.logger.WarnContext(ctx, "post poll failed", "session_id", item.ID, "league_id", item.LeagueID, "error", err)
		return poll.Poll{}, dependencyError("post poll", err)
	}

	created := poll.Poll{
		SessionID: item.ID,
		LeagueID:  item.LeagueID,
		MessageID: receipt.MessageID,
		ChannelID: receipt.ChannelID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.pollRepo.Create(ctx, created); err != nil {
		if errors.Is(err, poll.ErrPollExists) {
			return poll.Poll{}, &ConflictError{Message: "A poll has already been posted for this session"}
		}
		return poll.Poll{}, fmt.Errorf("create poll: %w", err)
	}

	s.logger.InfoContext(ctx, "poll posted",
		"session_id", item.ID,
		"league_id", item.LeagueID,
		"message_id", created.MessageID,
	)
	return created, nil
}

// ClosePoll locks the session and closes its poll. The lock stays in place even when
// the chat service is unreachable; the poll record is kept so the close can be retried.
func (s *AnnouncementService) ClosePoll(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnnouncementService.ClosePoll", attribute.String("session_id", sessionID))
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Session{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	current, exists, err := s.pollRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get session poll: %w", err)
	}
	if !exists {
		return session.Session{}, fmt.Errorf("%w: no poll for session=%s", ErrNotFound, sessionID)
	}

	item, err := s.getSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if item.Status != session.StatusCompleted {
		item, err = s.lifecycle.Lock(ctx, sessionID)
		if err != nil {
			return session.Session{}, err
		}
	}

	err = s.publisher.ClosePoll(ctx, ClosePollRequest{
		SessionID: current.SessionID,
		MessageID: current.MessageID,
		ChannelID: current.ChannelID,
	})
	if err != nil {
		recordSpanError(span, err)
		s.logger.WarnContext(ctx, "close poll failed", "session_id", sessionID, "error", err)
		return session.Session{}, dependencyError("close poll", err)
	}

	if err := s.pollRepo.DeleteBySession(ctx, sessionID); err != nil {
		return session.Session{}, fmt.Errorf("delete session poll: %w", err)
	}
	return item, nil
}

// PostRecap announces the session's pods and completes the session.
func (s *AnnouncementService) PostRecap(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnnouncementService.PostRecap", attribute.String("session_id", sessionID))
	defer span.End()

	item, err := s.getSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if err := recapGuard(item); err != nil {
		return session.Session{}, err
	}

	pods, err := s.podRepo.ListBySession(ctx, item.ID)
	if err != nil {
		return session.Session{}, fmt.Errorf("list session pods: %w", err)
	}
	visible := make([]pod.Pod, 0, len(pods))
	for _, p := range pods {
		if p.Status != pod.StatusCancelled {
			visible = append(visible, p)
		}
	}

	if err := s.publisher.PostRecap(ctx, RecapRequest{Session: item, Pods: visible}); err != nil {
		recordSpanError(span, err)
		s.logger.WarnContext(ctx, "post recap failed", "session_id", item.ID, "error", err)
		return session.Session{}, dependencyError("post recap", err)
	}

	return s.lifecycle.MarkRecapPosted(ctx, item.ID)
}

func (s *AnnouncementService) getSession(ctx context.Context, sessionID string) (session.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Session{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	item, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get session by id: %w", err)
	}
	if !exists {
		return session.Session{}, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}
	return item, nil
}

func dependencyError(op string, err error) error {
	if errors.Is(err, ErrDependencyUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrDependencyUnavailable, op, err)
}
