package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/riskibarqy/game-night/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type sequenceIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%03d", g.prefix, g.next), nil
}

// testClock moves forward one second per reading so arrival order is stable.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, time.March, 6, 19, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingEvents struct {
	mu         sync.Mutex
	attendance []AttendanceEvent
	pods       []pod.Pod
}

func (r *recordingEvents) PublishAttendanceUpdated(_ context.Context, event AttendanceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attendance = append(r.attendance, event)
}

func (r *recordingEvents) PublishPodCreated(_ context.Context, item pod.Pod) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pods = append(r.pods, item)
}

func (r *recordingEvents) attendanceOutcomes() []attendance.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]attendance.Outcome, 0, len(r.attendance))
	for _, event := range r.attendance {
		out = append(out, event.Outcome)
	}
	return out
}

type pollPublisherMock struct {
	mock.Mock
}

func (m *pollPublisherMock) PostPoll(ctx context.Context, req PollRequest) (PollReceipt, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(PollReceipt), args.Error(1)
}

func (m *pollPublisherMock) ClosePoll(ctx context.Context, req ClosePollRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *pollPublisherMock) PostRecap(ctx context.Context, req RecapRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type gameNight struct {
	sessionRepo    *memory.SessionRepository
	attendanceRepo *memory.AttendanceRepository
	podRepo        *memory.PodRepository
	pollRepo       *memory.PollRepository
	events         *recordingEvents
	publisher      *pollPublisherMock

	sessions     *SessionService
	attendance   *AttendanceService
	matchups     *MatchupService
	suggestions  *PodSuggestionService
	pods         *PodService
	announcement *AnnouncementService
}

func newGameNight(t *testing.T) *gameNight {
	t.Helper()

	clock := newTestClock()
	logger := logging.NewNop()
	g := &gameNight{
		sessionRepo:    memory.NewSessionRepository(),
		attendanceRepo: memory.NewAttendanceRepository(),
		podRepo:        memory.NewPodRepository(),
		pollRepo:       memory.NewPollRepository(),
		events:         &recordingEvents{},
		publisher:      &pollPublisherMock{},
	}

	g.sessions = NewSessionService(g.sessionRepo, g.attendanceRepo, g.pollRepo, &sequenceIDs{prefix: "ses"}, logger)
	g.sessions.now = clock.Now
	g.attendance = NewAttendanceService(g.sessionRepo, g.attendanceRepo, g.events, logger)
	g.attendance.now = clock.Now
	g.matchups = NewMatchupService(g.podRepo)
	g.suggestions = NewPodSuggestionService(g.sessionRepo, g.attendanceRepo, g.podRepo, g.matchups, PodSuggestionConfig{}, logger)
	g.pods = NewPodService(g.sessionRepo, g.attendanceRepo, g.podRepo, g.events, &sequenceIDs{prefix: "pod"}, logger)
	g.pods.now = clock.Now
	g.announcement = NewAnnouncementService(g.sessionRepo, g.pollRepo, g.podRepo, g.sessions, g.publisher, logger)
	g.announcement.now = clock.Now

	return g
}

func (g *gameNight) createSession(t *testing.T, leagueID, date string) session.Session {
	t.Helper()
	item, err := g.sessions.CreateSession(context.Background(), CreateSessionInput{
		LeagueID:  leagueID,
		Date:      date,
		Name:      "Friday Commander",
		CreatedBy: "admin-1",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return item
}

func (g *gameNight) checkIn(t *testing.T, sessionID string, userIDs ...string) {
	t.Helper()
	for _, userID := range userIDs {
		_, err := g.attendance.CheckIn(context.Background(), AttendanceInput{
			SessionID: sessionID,
			UserID:    userID,
			Source:    attendance.SourceSelf,
		})
		if err != nil {
			t.Fatalf("check in %s: %v", userID, err)
		}
	}
}

// playedPod commits a pod for players and marks it complete.
func (g *gameNight) playedPod(t *testing.T, sessionID string, playerIDs ...string) pod.Pod {
	t.Helper()
	ctx := context.Background()
	created, err := g.pods.CreatePod(ctx, CreatePodInput{SessionID: sessionID, CreatorID: "admin-1", PlayerIDs: playerIDs})
	if err != nil {
		t.Fatalf("create pod: %v", err)
	}
	done, err := g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: created.ID, Status: "complete"})
	if err != nil {
		t.Fatalf("complete pod: %v", err)
	}
	return done
}

func (g *gameNight) complete(t *testing.T, sessionID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := g.sessions.Lock(ctx, sessionID); err != nil {
		t.Fatalf("lock session: %v", err)
	}
	if _, err := g.sessions.SetStatus(ctx, sessionID, "completed"); err != nil {
		t.Fatalf("complete session: %v", err)
	}
}
