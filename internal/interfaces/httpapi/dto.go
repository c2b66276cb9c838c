package httpapi

import (
	"time"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/podformation"
	"github.com/riskibarqy/game-night/internal/domain/poll"
	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/riskibarqy/game-night/internal/usecase"
)

type createSessionRequest struct {
	LeagueID    string `json:"league_id" validate:"required,max=64"`
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	Name        string `json:"name" validate:"omitempty,max=120"`
}

type updateSessionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled active locked completed"`
}

type adminAttendanceRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	Force  bool   `json:"force"`
}

type pollResponseRequest struct {
	UserID    string `json:"user_id" validate:"required,max=64"`
	Attending *bool  `json:"attending" validate:"required"`
}

type createPodRequest struct {
	PlayerIDs []string `json:"player_ids" validate:"required,min=3,max=6,dive,required"`
	TurnOrder []string `json:"turn_order" validate:"omitempty,dive,required"`
}

type updatePodStatusRequest struct {
	ConfirmationStatus string            `json:"confirmation_status" validate:"required,oneof=active complete cancelled"`
	Results            map[string]string `json:"results" validate:"omitempty,dive,keys,required,endkeys,oneof=win loss draw"`
}

type postPollRequest struct {
	CustomMessage string `json:"custom_message" validate:"omitempty,max=1000"`
}

type sessionDTO struct {
	ID               string `json:"id"`
	LeagueID         string `json:"league_id"`
	SessionDate      string `json:"session_date"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	CreatedBy        string `json:"created_by"`
	RecapPostedAtUTC string `json:"recap_posted_at_utc,omitempty"`
	CreatedAtUTC     string `json:"created_at_utc"`
	UpdatedAtUTC     string `json:"updated_at_utc"`
}

type sessionSummaryDTO struct {
	sessionDTO
	AttendingCount int  `json:"attending_count"`
	TotalResponses int  `json:"total_responses"`
	HasActivePoll  bool `json:"has_active_poll"`
}

type sessionDetailDTO struct {
	Session    sessionDTO      `json:"session"`
	Attendance []attendanceDTO `json:"attendance"`
	Counts     countsDTO       `json:"counts"`
	Poll       *pollDTO        `json:"poll,omitempty"`
}

type countsDTO struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Total    int `json:"total"`
}

type attendanceDTO struct {
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id"`
	IsActive        bool   `json:"is_active"`
	UpdatedVia      string `json:"updated_via"`
	CheckedInAtUTC  string `json:"checked_in_at_utc"`
	CheckedOutAtUTC string `json:"checked_out_at_utc,omitempty"`
	UpdatedAtUTC    string `json:"updated_at_utc"`
}

type attendanceResultDTO struct {
	Outcome string        `json:"outcome"`
	Record  attendanceDTO `json:"record"`
}

type pollDTO struct {
	SessionID    string `json:"session_id"`
	LeagueID     string `json:"league_id"`
	MessageID    string `json:"message_id"`
	ChannelID    string `json:"channel_id"`
	CreatedAtUTC string `json:"created_at_utc"`
}

type podDTO struct {
	ID                 string              `json:"id"`
	LeagueID           string              `json:"league_id"`
	SessionID          string              `json:"session_id"`
	CreatorID          string              `json:"creator_id"`
	ConfirmationStatus string              `json:"confirmation_status"`
	Participants       []podParticipantDTO `json:"participants"`
	CreatedAtUTC       string              `json:"created_at_utc"`
	UpdatedAtUTC       string              `json:"updated_at_utc"`
}

type podParticipantDTO struct {
	PlayerID  string `json:"player_id"`
	TurnOrder int    `json:"turn_order"`
	Result    string `json:"result,omitempty"`
}

type podSuggestionDTO struct {
	SessionID     string             `json:"session_id"`
	PodSize       int                `json:"pod_size"`
	GroupSizes    []int              `json:"group_sizes"`
	Pods          []suggestedPodDTO  `json:"pods"`
	Leftover      []string           `json:"leftover"`
	AlreadyPlaced []string           `json:"already_placed"`
	TotalPlayers  int                `json:"total_players"`
	TotalScore    int                `json:"total_score"`
	Search        suggestionStatsDTO `json:"search"`
}

type suggestedPodDTO struct {
	Players  []string     `json:"players"`
	Size     int          `json:"size"`
	Score    int          `json:"score"`
	Pairings []pairingDTO `json:"pairings"`
}

type pairingDTO struct {
	Player1       string `json:"player1"`
	Player2       string `json:"player2"`
	PreviousGames int    `json:"previous_games"`
}

type suggestionStatsDTO struct {
	Swaps           int  `json:"swaps"`
	BudgetExhausted bool `json:"budget_exhausted"`
}

type matchupMatrixDTO struct {
	LeagueID string                    `json:"league_id"`
	Players  []string                  `json:"players"`
	Matrix   map[string]map[string]int `json:"matrix"`
}

func sessionToDTO(v session.Session) sessionDTO {
	return sessionDTO{
		ID:               v.ID,
		LeagueID:         v.LeagueID,
		SessionDate:      v.Date.Format(session.DateLayout),
		Name:             v.Name,
		Status:           string(v.Status),
		CreatedBy:        v.CreatedBy,
		RecapPostedAtUTC: formatOptionalTime(v.RecapPostedAt),
		CreatedAtUTC:     formatTime(v.CreatedAt),
		UpdatedAtUTC:     formatTime(v.UpdatedAt),
	}
}

func sessionSummaryToDTO(v usecase.SessionSummary) sessionSummaryDTO {
	return sessionSummaryDTO{
		sessionDTO:     sessionToDTO(v.Session),
		AttendingCount: v.AttendingCount,
		TotalResponses: v.TotalResponses,
		HasActivePoll:  v.HasActivePoll,
	}
}

func sessionDetailToDTO(v usecase.SessionDetail) sessionDetailDTO {
	out := sessionDetailDTO{
		Session:    sessionToDTO(v.Session),
		Attendance: attendanceListToDTO(v.Attendance),
		Counts: countsDTO{
			Active:   v.Counts.Active,
			Inactive: v.Counts.Inactive,
			Total:    v.Counts.Total,
		},
	}
	if v.Poll != nil {
		p := pollToDTO(*v.Poll)
		out.Poll = &p
	}
	return out
}

func attendanceToDTO(v attendance.Record) attendanceDTO {
	return attendanceDTO{
		SessionID:       v.SessionID,
		UserID:          v.UserID,
		IsActive:        v.IsActive,
		UpdatedVia:      string(v.UpdatedVia),
		CheckedInAtUTC:  formatTime(v.CheckedInAt),
		CheckedOutAtUTC: formatOptionalTime(v.CheckedOutAt),
		UpdatedAtUTC:    formatTime(v.UpdatedAt),
	}
}

func attendanceListToDTO(items []attendance.Record) []attendanceDTO {
	out := make([]attendanceDTO, 0, len(items))
	for _, item := range items {
		out = append(out, attendanceToDTO(item))
	}
	return out
}

func attendanceResultToDTO(v usecase.AttendanceResult) attendanceResultDTO {
	return attendanceResultDTO{
		Outcome: string(v.Outcome),
		Record:  attendanceToDTO(v.Record),
	}
}

func pollToDTO(v poll.Poll) pollDTO {
	return pollDTO{
		SessionID:    v.SessionID,
		LeagueID:     v.LeagueID,
		MessageID:    v.MessageID,
		ChannelID:    v.ChannelID,
		CreatedAtUTC: formatTime(v.CreatedAt),
	}
}

func podToDTO(v pod.Pod) podDTO {
	participants := make([]podParticipantDTO, 0, len(v.Participants))
	for _, p := range v.Participants {
		participants = append(participants, podParticipantDTO{
			PlayerID:  p.PlayerID,
			TurnOrder: p.TurnOrder,
			Result:    string(p.Result),
		})
	}
	return podDTO{
		ID:                 v.ID,
		LeagueID:           v.LeagueID,
		SessionID:          v.SessionID,
		CreatorID:          v.CreatorID,
		ConfirmationStatus: string(v.Status),
		Participants:       participants,
		CreatedAtUTC:       formatTime(v.CreatedAt),
		UpdatedAtUTC:       formatTime(v.UpdatedAt),
	}
}

func podListToDTO(items []pod.Pod) []podDTO {
	out := make([]podDTO, 0, len(items))
	for _, item := range items {
		out = append(out, podToDTO(item))
	}
	return out
}

func podSuggestionToDTO(v usecase.PodSuggestion) podSuggestionDTO {
	partition := v.Partition
	pods := make([]suggestedPodDTO, 0, len(partition.Pods))
	for _, group := range partition.Pods {
		pods = append(pods, suggestedPodToDTO(group))
	}
	return podSuggestionDTO{
		SessionID:     v.Session.ID,
		PodSize:       partition.Plan.PodSize,
		GroupSizes:    nonNilInts(partition.Plan.GroupSizes),
		Pods:          pods,
		Leftover:      nonNilStrings(partition.Leftover),
		AlreadyPlaced: nonNilStrings(v.AlreadyPlaced),
		TotalPlayers:  partition.TotalPlayers,
		TotalScore:    partition.TotalScore,
		Search: suggestionStatsDTO{
			Swaps:           partition.Swaps,
			BudgetExhausted: partition.BudgetExhausted,
		},
	}
}

func suggestedPodToDTO(v podformation.Group) suggestedPodDTO {
	pairings := make([]pairingDTO, 0, len(v.Pairings))
	for _, p := range v.Pairings {
		pairings = append(pairings, pairingDTO{
			Player1:       p.Player1,
			Player2:       p.Player2,
			PreviousGames: p.PreviousGames,
		})
	}
	return suggestedPodDTO{
		Players:  nonNilStrings(v.Players),
		Size:     v.Size,
		Score:    v.Score,
		Pairings: pairings,
	}
}

func matrixViewToDTO(v usecase.MatrixView) matchupMatrixDTO {
	matrix := v.Matrix
	if matrix == nil {
		matrix = map[string]map[string]int{}
	}
	return matchupMatrixDTO{
		LeagueID: v.LeagueID,
		Players:  nonNilStrings(v.Players),
		Matrix:   matrix,
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
