package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementService_PostPoll(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")

	g.publisher.
		On("PostPoll", mock.Anything, mock.MatchedBy(func(req PollRequest) bool {
			return req.Session.ID == item.ID && req.CustomMessage == "Bring sleeves"
		})).
		Return(PollReceipt{MessageID: "msg-1", ChannelID: "chan-1"}, nil).
		Once()

	created, err := g.announcement.PostPoll(ctx, item.ID, "  Bring sleeves ")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", created.MessageID)
	assert.Equal(t, "chan-1", created.ChannelID)
	assert.Equal(t, "league-1", created.LeagueID)

	_, err = g.announcement.PostPoll(ctx, item.ID, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.ExistingSessionID)

	detail, err := g.sessions.GetSession(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Poll)
	assert.Equal(t, "msg-1", detail.Poll.MessageID)

	g.publisher.AssertExpectations(t)
}

func TestAnnouncementService_PostPollRejectsSecondLeaguePoll(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	g.publisher.On("PostPoll", mock.Anything, mock.Anything).Return(PollReceipt{MessageID: "msg-1", ChannelID: "chan-1"}, nil).Once()

	first := g.createSession(t, "league-1", "2026-02-27")
	_, err := g.announcement.PostPoll(ctx, first.ID, "")
	require.NoError(t, err)
	g.complete(t, first.ID)

	second := g.createSession(t, "league-1", "2026-03-06")
	_, err = g.announcement.PostPoll(ctx, second.ID, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ExistingSessionID)

	_, err = g.announcement.PostPoll(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)

	g.publisher.AssertExpectations(t)
}

func TestAnnouncementService_PostPollDependencyFailure(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.publisher.On("PostPoll", mock.Anything, mock.Anything).Return(PollReceipt{}, errors.New("connection refused")).Once()

	_, err := g.announcement.PostPoll(ctx, item.ID, "")
	require.ErrorIs(t, err, ErrDependencyUnavailable)

	_, exists, err := g.pollRepo.GetBySession(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAnnouncementService_ClosePoll(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")

	_, err := g.announcement.ClosePoll(ctx, item.ID)
	require.ErrorIs(t, err, ErrNotFound)

	g.publisher.On("PostPoll", mock.Anything, mock.Anything).Return(PollReceipt{MessageID: "msg-1", ChannelID: "chan-1"}, nil).Once()
	_, err = g.announcement.PostPoll(ctx, item.ID, "")
	require.NoError(t, err)

	closeReq := ClosePollRequest{SessionID: item.ID, MessageID: "msg-1", ChannelID: "chan-1"}
	g.publisher.On("ClosePoll", mock.Anything, closeReq).Return(errors.New("bad gateway")).Once()

	_, err = g.announcement.ClosePoll(ctx, item.ID)
	require.ErrorIs(t, err, ErrDependencyUnavailable)

	stored, _, err := g.sessionRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLocked, stored.Status, "the lock survives a failed close")
	_, exists, err := g.pollRepo.GetBySession(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, exists, "the poll is kept for a retry")

	g.publisher.On("ClosePoll", mock.Anything, closeReq).Return(nil).Once()
	closed, err := g.announcement.ClosePoll(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLocked, closed.Status)

	_, exists, err = g.pollRepo.GetBySession(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	g.publisher.AssertExpectations(t)
}

func TestAnnouncementService_PostRecap(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "a", "b", "c", "d", "e", "f")
	played := g.playedPod(t, item.ID, "a", "b", "c")
	dropped, err := g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"d", "e", "f"}})
	require.NoError(t, err)
	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: dropped.ID, Status: "cancelled"})
	require.NoError(t, err)

	_, err = g.announcement.PostRecap(ctx, item.ID)
	require.ErrorIs(t, err, ErrInvalidState, "recaps need a locked session")

	_, err = g.sessions.Lock(ctx, item.ID)
	require.NoError(t, err)

	g.publisher.On("PostRecap", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()
	_, err = g.announcement.PostRecap(ctx, item.ID)
	require.ErrorIs(t, err, ErrDependencyUnavailable)
	stored, _, err := g.sessionRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLocked, stored.Status)
	assert.Nil(t, stored.RecapPostedAt)

	g.publisher.
		On("PostRecap", mock.Anything, mock.MatchedBy(func(req RecapRequest) bool {
			return req.Session.ID == item.ID && len(req.Pods) == 1 && req.Pods[0].ID == played.ID
		})).
		Return(nil).
		Once()
	done, err := g.announcement.PostRecap(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, done.Status)
	require.NotNil(t, done.RecapPostedAt)

	_, err = g.announcement.PostRecap(ctx, item.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.NotNil(t, conflict.RecapPostedAt)

	g.publisher.AssertExpectations(t)
}
