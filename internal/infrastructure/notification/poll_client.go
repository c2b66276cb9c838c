package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/platform/resilience"
	"github.com/riskibarqy/game-night/internal/usecase"
)

type PollClientConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// PollClient posts attendance polls and recaps through the chat bot service.
type PollClient struct {
	transport *jsonTransport
	logger    *logging.Logger
}

func NewPollClient(cfg PollClientConfig, logger *logging.Logger) *PollClient {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("notification.poll")
	return &PollClient{
		transport: newJSONTransport("poll service", cfg.BaseURL, cfg.Token, cfg.Timeout, cfg.CircuitBreaker, logger),
		logger:    logger,
	}
}

func (c *PollClient) PostPoll(ctx context.Context, req usecase.PollRequest) (usecase.PollReceipt, error) {
	payload := postPollPayload{
		SessionID:   req.Session.ID,
		LeagueID:    req.Session.LeagueID,
		SessionDate: req.Session.Date.Format(session.DateLayout),
		SessionName: req.Session.Name,
		Message:     strings.TrimSpace(req.CustomMessage),
	}

	var out messageRef
	if err := c.transport.post(ctx, "/v1/polls", payload, &out); err != nil {
		return usecase.PollReceipt{}, err
	}
	if strings.TrimSpace(out.MessageID) == "" {
		return usecase.PollReceipt{}, fmt.Errorf("%w: poll service returned no message id", usecase.ErrDependencyUnavailable)
	}

	c.logger.InfoContext(ctx, "attendance poll posted",
		"session_id", req.Session.ID,
		"league_id", req.Session.LeagueID,
		"message_id", out.MessageID,
		"channel_id", out.ChannelID,
	)
	return usecase.PollReceipt{MessageID: out.MessageID, ChannelID: out.ChannelID}, nil
}

func (c *PollClient) ClosePoll(ctx context.Context, req usecase.ClosePollRequest) error {
	payload := closePollPayload{
		SessionID: req.SessionID,
		MessageID: req.MessageID,
		ChannelID: req.ChannelID,
	}
	if err := c.transport.post(ctx, "/v1/polls/close", payload, nil); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "attendance poll closed", "session_id", req.SessionID, "message_id", req.MessageID)
	return nil
}

func (c *PollClient) PostRecap(ctx context.Context, req usecase.RecapRequest) error {
	payload := recapPayload{
		SessionID:   req.Session.ID,
		LeagueID:    req.Session.LeagueID,
		SessionDate: req.Session.Date.Format(session.DateLayout),
		SessionName: req.Session.Name,
		Pods:        make([]podPayload, 0, len(req.Pods)),
	}
	for _, item := range req.Pods {
		payload.Pods = append(payload.Pods, toPodPayload(item))
	}

	var out messageRef
	if err := c.transport.post(ctx, "/v1/recaps", payload, &out); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "session recap posted",
		"session_id", req.Session.ID,
		"pods", len(req.Pods),
		"message_id", out.MessageID,
	)
	return nil
}

func toPodPayload(item pod.Pod) podPayload {
	out := podPayload{
		PodID:   item.ID,
		Status:  string(item.Status),
		Players: make([]seatPayload, 0, len(item.Participants)),
	}
	for _, participant := range item.Participants {
		out.Players = append(out.Players, seatPayload{
			PlayerID:  participant.PlayerID,
			TurnOrder: participant.TurnOrder,
			Result:    string(participant.Result),
		})
	}
	return out
}

type postPollPayload struct {
	SessionID   string `json:"session_id"`
	LeagueID    string `json:"league_id"`
	SessionDate string `json:"session_date"`
	SessionName string `json:"session_name,omitempty"`
	Message     string `json:"message,omitempty"`
}

type closePollPayload struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
}

type recapPayload struct {
	SessionID   string       `json:"session_id"`
	LeagueID    string       `json:"league_id"`
	SessionDate string       `json:"session_date"`
	SessionName string       `json:"session_name,omitempty"`
	Pods        []podPayload `json:"pods"`
}

type podPayload struct {
	PodID   string        `json:"pod_id"`
	Status  string        `json:"status"`
	Players []seatPayload `json:"players"`
}

type seatPayload struct {
	PlayerID  string `json:"player_id"`
	TurnOrder int    `json:"turn_order"`
	Result    string `json:"result,omitempty"`
}

type messageRef struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
}

// DisabledPollPublisher is wired when no poll service is configured.
type DisabledPollPublisher struct{}

func (DisabledPollPublisher) PostPoll(context.Context, usecase.PollRequest) (usecase.PollReceipt, error) {
	return usecase.PollReceipt{}, fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable)
}

func (DisabledPollPublisher) ClosePoll(context.Context, usecase.ClosePollRequest) error {
	return fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable)
}

func (DisabledPollPublisher) PostRecap(context.Context, usecase.RecapRequest) error {
	return fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable)
}
