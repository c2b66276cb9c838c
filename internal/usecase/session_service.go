package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/poll"
	"github.com/riskibarqy/game-night/internal/domain/session"
	idgen "github.com/riskibarqy/game-night/internal/platform/id"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const sessionTransitionAttempts = 3

type CreateSessionInput struct {
	LeagueID  string
	Date      string
	Name      string
	CreatedBy string
}

// SessionSummary is a session row in league listings.
type SessionSummary struct {
	Session        session.Session
	AttendingCount int
	TotalResponses int
	HasActivePoll  bool
}

// SessionDetail is a session with its full attendance ledger.
type SessionDetail struct {
	Session    session.Session
	Attendance []attendance.Record
	Counts     session.AttendanceCounts
	Poll       *poll.Poll
}

type SessionService struct {
	sessionRepo    session.Repository
	attendanceRepo attendance.Repository
	pollRepo       poll.Repository
	idGen          idgen.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewSessionService(
	sessionRepo session.Repository,
	attendanceRepo attendance.Repository,
	pollRepo poll.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		pollRepo:       pollRepo,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.CreateSession", attribute.String("league_id", input.LeagueID))
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.Date = strings.TrimSpace(input.Date)
	input.Name = strings.TrimSpace(input.Name)
	if input.LeagueID == "" {
		return session.Session{}, fmt.Errorf("%w: league_id is required", ErrInvalidInput)
	}
	if input.Date == "" {
		return session.Session{}, fmt.Errorf("%w: session_date is required", ErrInvalidInput)
	}
	date, err := time.ParseInLocation(session.DateLayout, input.Date, time.UTC)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: session_date must be YYYY-MM-DD", ErrInvalidInput)
	}

	existing, exists, err := s.sessionRepo.FindOpenByLeague(ctx, input.LeagueID)
	if err != nil {
		return session.Session{}, fmt.Errorf("find open session by league: %w", err)
	}
	if exists {
		return session.Session{}, openSessionConflict(existing)
	}

	sessionID, err := s.idGen.NewID()
	if err != nil {
		return session.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC()
	item := session.Session{
		ID:        sessionID,
		LeagueID:  input.LeagueID,
		Date:      date,
		Name:      input.Name,
		Status:    session.StatusScheduled,
		CreatedBy: strings.TrimSpace(input.CreatedBy),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, item); err != nil {
		if errors.Is(err, session.ErrOpenSessionExists) {
			existing, exists, findErr := s.sessionRepo.FindOpenByLeague(ctx, input.LeagueID)
			if findErr == nil && exists {
				return session.Session{}, openSessionConflict(existing)
			}
			return session.Session{}, &ConflictError{Message: "An open session already exists for this league"}
		}
		recordSpanError(span, err)
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "session created",
		"session_id", item.ID,
		"league_id", item.LeagueID,
		"session_date", item.DateString(),
	)
	return item, nil
}

// SetStatus moves a session to newStatus through the lifecycle rules.
func (s *SessionService) SetStatus(ctx context.Context, sessionID, newStatus string) (session.Session, error) {
	target, ok := session.ParseStatus(newStatus)
	if !ok {
		return session.Session{}, fmt.Errorf("%w: status must be one of scheduled, active, locked, completed", ErrInvalidInput)
	}
	action, err := session.ActionFor(target)
	if err != nil {
		return session.Session{}, &StateError{Message: err.Error()}
	}
	return s.transition(ctx, "usecase.SessionService.SetStatus", sessionID, action)
}

// Lock closes attendance. Locking an already locked session is a no-op.
func (s *SessionService) Lock(ctx context.Context, sessionID string) (session.Session, error) {
	return s.transition(ctx, "usecase.SessionService.Lock", sessionID, session.ActionLock)
}

func (s *SessionService) Reopen(ctx context.Context, sessionID string) (session.Session, error) {
	return s.transition(ctx, "usecase.SessionService.Reopen", sessionID, session.ActionReopen)
}

func (s *SessionService) transition(ctx context.Context, spanName, sessionID string, action session.Action) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, spanName, attribute.String("session_id", sessionID), attribute.String("action", string(action)))
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Session{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	for attempt := 0; attempt < sessionTransitionAttempts; attempt++ {
		item, err := s.getSession(ctx, sessionID)
		if err != nil {
			return session.Session{}, err
		}

		next, err := session.Next(item.Status, action)
		if err != nil {
			return session.Session{}, &StateError{Message: err.Error()}
		}
		if next == item.Status {
			return item, nil
		}

		now := s.now().UTC()
		updated, err := s.sessionRepo.UpdateStatus(ctx, sessionID, item.Status, next, now)
		if err != nil {
			recordSpanError(span, err)
			return session.Session{}, fmt.Errorf("update session status: %w", err)
		}
		if !updated {
			continue
		}

		s.logger.InfoContext(ctx, "session status changed",
			"session_id", sessionID,
			"league_id", item.LeagueID,
			"from", string(item.Status),
			"to", string(next),
		)
		item.Status = next
		item.UpdatedAt = now
		return item, nil
	}

	return session.Session{}, &ConflictError{Message: "Session changed while updating, please retry"}
}

// MarkRecapPosted records that the recap went out and completes the session.
func (s *SessionService) MarkRecapPosted(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.MarkRecapPosted", attribute.String("session_id", sessionID))
	defer span.End()

	item, err := s.getSession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return session.Session{}, err
	}
	if err := recapGuard(item); err != nil {
		return session.Session{}, err
	}

	now := s.now().UTC()
	updated, err := s.sessionRepo.MarkRecapPosted(ctx, item.ID, now)
	if err != nil {
		recordSpanError(span, err)
		return session.Session{}, fmt.Errorf("mark recap posted: %w", err)
	}
	if !updated {
		latest, err := s.getSession(ctx, item.ID)
		if err != nil {
			return session.Session{}, err
		}
		if err := recapGuard(latest); err != nil {
			return session.Session{}, err
		}
		return session.Session{}, &ConflictError{Message: "Session changed while posting recap, please retry"}
	}

	item.RecapPostedAt = &now
	item.Status = session.StatusCompleted
	item.UpdatedAt = now
	return item, nil
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (SessionDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.GetSession", attribute.String("session_id", sessionID))
	defer span.End()

	item, err := s.getSession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return SessionDetail{}, err
	}

	records, err := s.attendanceRepo.ListBySession(ctx, item.ID)
	if err != nil {
		return SessionDetail{}, fmt.Errorf("list session attendance: %w", err)
	}

	detail := SessionDetail{Session: item, Attendance: records}
	for _, record := range records {
		detail.Counts.Total++
		if record.IsActive {
			detail.Counts.Active++
		} else {
			detail.Counts.Inactive++
		}
	}

	existing, exists, err := s.pollRepo.GetBySession(ctx, item.ID)
	if err != nil {
		return SessionDetail{}, fmt.Errorf("get session poll: %w", err)
	}
	if exists {
		detail.Poll = &existing
	}

	return detail, nil
}

// ListLeagueSessions returns the league's sessions newest first with attendance totals.
func (s *SessionService) ListLeagueSessions(ctx context.Context, leagueID string) ([]SessionSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.ListLeagueSessions", attribute.String("league_id", leagueID))
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	items, err := s.sessionRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list sessions by league: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	counts, err := s.attendanceRepo.CountBySessions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count attendance by sessions: %w", err)
	}
	polls, err := s.pollRepo.SessionsWithPoll(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list sessions with poll: %w", err)
	}

	out := make([]SessionSummary, 0, len(items))
	for _, item := range items {
		c := counts[item.ID]
		out = append(out, SessionSummary{
			Session:        item,
			AttendingCount: c.Active,
			TotalResponses: c.Total,
			HasActivePoll:  polls[item.ID],
		})
	}
	return out, nil
}

// CurrentSession returns the league's open session, or its most recent one when none is open.
func (s *SessionService) CurrentSession(ctx context.Context, leagueID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.CurrentSession", attribute.String("league_id", leagueID))
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return session.Session{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	items, err := s.sessionRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return session.Session{}, fmt.Errorf("list sessions by league: %w", err)
	}
	item, ok := session.PickCurrent(items)
	if !ok {
		return session.Session{}, fmt.Errorf("%w: no sessions for league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

func (s *SessionService) getSession(ctx context.Context, sessionID string) (session.Session, error) {
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

func recapGuard(item session.Session) error {
	if item.RecapPostedAt != nil {
		posted := *item.RecapPostedAt
		return &ConflictError{Message: "Recap has already been posted for this session", RecapPostedAt: &posted}
	}
	if item.Status != session.StatusLocked {
		return &StateError{Message: "Session must be locked before posting a recap"}
	}
	return nil
}

func openSessionConflict(existing session.Session) error {
	return &ConflictError{
		Message:           "An open session already exists for this league",
		ExistingSessionID: existing.ID,
	}
}
