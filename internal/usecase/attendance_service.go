package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type AttendanceInput struct {
	SessionID string
	UserID    string
	Source    attendance.Source
	Force     bool
}

type AttendanceResult struct {
	Outcome attendance.Outcome
	Record  attendance.Record
	Session session.Session
}

type AttendanceService struct {
	sessionRepo    session.Repository
	attendanceRepo attendance.Repository
	events         EventPublisher
	logger         *logging.Logger
	now            func() time.Time
}

func NewAttendanceService(
	sessionRepo session.Repository,
	attendanceRepo attendance.Repository,
	events EventPublisher,
	logger *logging.Logger,
) *AttendanceService {
	if events == nil {
		events = NopEventPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AttendanceService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		events:         events,
		logger:         logger,
		now:            time.Now,
	}
}

// CheckIn marks the user as attending. The outcome distinguishes a new record,
// a reactivated one and a repeated check-in.
func (s *AttendanceService) CheckIn(ctx context.Context, input AttendanceInput) (AttendanceResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.CheckIn",
		attribute.String("session_id", input.SessionID),
		attribute.String("source", string(input.Source)),
	)
	defer span.End()

	item, input, err := s.prepare(ctx, input)
	if err != nil {
		return AttendanceResult{}, err
	}

	now := s.now().UTC()
	record, exists, err := s.attendanceRepo.Get(ctx, input.SessionID, input.UserID)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("get attendance record: %w", err)
	}

	if !exists {
		record = attendance.Record{
			SessionID:   input.SessionID,
			UserID:      input.UserID,
			IsActive:    true,
			UpdatedVia:  input.Source,
			CheckedInAt: now,
			UpdatedAt:   now,
		}
		inserted, err := s.attendanceRepo.Insert(ctx, record)
		if err != nil {
			recordSpanError(span, err)
			return AttendanceResult{}, fmt.Errorf("insert attendance record: %w", err)
		}
		if inserted {
			return s.finish(ctx, item, record, attendance.OutcomeCheckedIn), nil
		}
		// A concurrent request created the record first; continue from its state.
		record, _, err = s.attendanceRepo.Get(ctx, input.SessionID, input.UserID)
		if err != nil {
			return AttendanceResult{}, fmt.Errorf("reload attendance record: %w", err)
		}
	}

	if record.IsActive {
		return AttendanceResult{Outcome: attendance.OutcomeAlreadyActive, Record: record, Session: item}, nil
	}

	changed, err := s.attendanceRepo.SetActive(ctx, input.SessionID, input.UserID, true, input.Source, now)
	if err != nil {
		recordSpanError(span, err)
		return AttendanceResult{}, fmt.Errorf("reactivate attendance record: %w", err)
	}
	record, _, err = s.attendanceRepo.Get(ctx, input.SessionID, input.UserID)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("reload attendance record: %w", err)
	}
	if !changed {
		return AttendanceResult{Outcome: attendance.OutcomeAlreadyActive, Record: record, Session: item}, nil
	}
	return s.finish(ctx, item, record, attendance.OutcomeReactivated), nil
}

// CheckOut marks the user as no longer attending. Users without any record get ErrNotFound.
func (s *AttendanceService) CheckOut(ctx context.Context, input AttendanceInput) (AttendanceResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.CheckOut",
		attribute.String("session_id", input.SessionID),
		attribute.String("source", string(input.Source)),
	)
	defer span.End()

	item, input, err := s.prepare(ctx, input)
	if err != nil {
		return AttendanceResult{}, err
	}

	record, exists, err := s.attendanceRepo.Get(ctx, input.SessionID, input.UserID)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("get attendance record: %w", err)
	}
	if !exists {
		return AttendanceResult{}, fmt.Errorf("%w: user=%s is not checked in to session=%s", ErrNotFound, input.UserID, input.SessionID)
	}
	if !record.IsActive {
		return AttendanceResult{Outcome: attendance.OutcomeAlreadyInactive, Record: record, Session: item}, nil
	}

	changed, err := s.attendanceRepo.SetActive(ctx, input.SessionID, input.UserID, false, input.Source, s.now().UTC())
	if err != nil {
		recordSpanError(span, err)
		return AttendanceResult{}, fmt.Errorf("deactivate attendance record: %w", err)
	}
	record, _, err = s.attendanceRepo.Get(ctx, input.SessionID, input.UserID)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("reload attendance record: %w", err)
	}
	if !changed {
		return AttendanceResult{Outcome: attendance.OutcomeAlreadyInactive, Record: record, Session: item}, nil
	}
	return s.finish(ctx, item, record, attendance.OutcomeCheckedOut), nil
}

// RecordPollResponse applies an RSVP reported by the chat poll integration.
// A "not attending" answer from a user with no record stores an inactive record.
func (s *AttendanceService) RecordPollResponse(ctx context.Context, sessionID, userID string, attending bool) (AttendanceResult, error) {
	input := AttendanceInput{SessionID: sessionID, UserID: userID, Source: attendance.SourceExternalPoll}
	if attending {
		return s.CheckIn(ctx, input)
	}

	item, input, err := s.prepare(ctx, input)
	if err != nil {
		return AttendanceResult{}, err
	}

	_, exists, err := s.attendanceRepo.Get(ctx, input.SessionID, input.UserID)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("get attendance record: %w", err)
	}
	if exists {
		return s.CheckOut(ctx, input)
	}

	now := s.now().UTC()
	record := attendance.Record{
		SessionID:    input.SessionID,
		UserID:       input.UserID,
		IsActive:     false,
		UpdatedVia:   input.Source,
		CheckedInAt:  now,
		CheckedOutAt: &now,
		UpdatedAt:    now,
	}
	inserted, err := s.attendanceRepo.Insert(ctx, record)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("insert declined attendance record: %w", err)
	}
	if !inserted {
		return s.CheckOut(ctx, input)
	}
	return s.finish(ctx, item, record, attendance.OutcomeCheckedOut), nil
}

// ListActiveAttendees returns the active records of a session in arrival order.
func (s *AttendanceService) ListActiveAttendees(ctx context.Context, sessionID string) ([]attendance.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.ListActiveAttendees", attribute.String("session_id", sessionID))
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}

	records, err := s.attendanceRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session attendance: %w", err)
	}
	out := make([]attendance.Record, 0, len(records))
	for _, record := range records {
		if record.IsActive {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *AttendanceService) prepare(ctx context.Context, input AttendanceInput) (session.Session, AttendanceInput, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return session.Session{}, input, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	source, ok := attendance.ParseSource(string(input.Source))
	if !ok {
		return session.Session{}, input, fmt.Errorf("%w: unknown attendance source %q", ErrInvalidInput, input.Source)
	}
	input.Source = source

	item, err := s.loadSession(ctx, input.SessionID)
	if err != nil {
		return session.Session{}, input, err
	}
	if err := attendanceGate(item, input); err != nil {
		s.logger.WarnContext(ctx, "attendance change rejected",
			"session_id", item.ID,
			"user_id", input.UserID,
			"status", string(item.Status),
			"source", string(input.Source),
		)
		return session.Session{}, input, err
	}
	return item, input, nil
}

func (s *AttendanceService) loadSession(ctx context.Context, sessionID string) (session.Session, error) {
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

func (s *AttendanceService) finish(ctx context.Context, item session.Session, record attendance.Record, outcome attendance.Outcome) AttendanceResult {
	s.events.PublishAttendanceUpdated(ctx, AttendanceEvent{
		SessionID: item.ID,
		LeagueID:  item.LeagueID,
		UserID:    record.UserID,
		Outcome:   outcome,
		Source:    record.UpdatedVia,
		IsActive:  record.IsActive,
		At:        record.UpdatedAt,
	})
	return AttendanceResult{Outcome: outcome, Record: record, Session: item}
}

// attendanceGate closes attendance once a session is locked or completed.
// Only forcing sources may override, and only with force set.
func attendanceGate(item session.Session, input AttendanceInput) error {
	if item.Status.AcceptsSelfService() {
		return nil
	}
	if input.Source.CanForce() {
		if input.Force {
			return nil
		}
		return &StateError{
			Message:       fmt.Sprintf("Session is %s. Use force to override.", item.Status),
			RequiresForce: true,
		}
	}
	return &StateError{Message: fmt.Sprintf("Session is %s. Attendance can no longer be changed.", item.Status)}
}
