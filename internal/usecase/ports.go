package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/matchup"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/session"
)

// AttendanceEvent is published after an attendance record changes.
type AttendanceEvent struct {
	SessionID string
	LeagueID  string
	UserID    string
	Outcome   attendance.Outcome
	Source    attendance.Source
	IsActive  bool
	At        time.Time
}

// EventPublisher fans out realtime updates. Delivery is best effort and never fails the caller.
type EventPublisher interface {
	PublishAttendanceUpdated(ctx context.Context, event AttendanceEvent)
	PublishPodCreated(ctx context.Context, item pod.Pod)
}

type NopEventPublisher struct{}

func (NopEventPublisher) PublishAttendanceUpdated(context.Context, AttendanceEvent) {}
func (NopEventPublisher) PublishPodCreated(context.Context, pod.Pod)                {}

type PollRequest struct {
	Session       session.Session
	CustomMessage string
}

type PollReceipt struct {
	MessageID string
	ChannelID string
}

type ClosePollRequest struct {
	SessionID string
	MessageID string
	ChannelID string
}

type RecapRequest struct {
	Session session.Session
	Pods    []pod.Pod
}

// PollPublisher talks to the chat service that hosts attendance polls and recaps.
type PollPublisher interface {
	PostPoll(ctx context.Context, req PollRequest) (PollReceipt, error)
	ClosePoll(ctx context.Context, req ClosePollRequest) error
	PostRecap(ctx context.Context, req RecapRequest) error
}

type completedRosterSource interface {
	ListCompletedRosters(ctx context.Context, leagueID string) ([][]string, error)
}

type matrixSource interface {
	ComputeMatrix(ctx context.Context, leagueID string) (matchup.Matrix, error)
}

type sessionLifecycle interface {
	Lock(ctx context.Context, sessionID string) (session.Session, error)
	MarkRecapPosted(ctx context.Context, sessionID string) (session.Session, error)
}
