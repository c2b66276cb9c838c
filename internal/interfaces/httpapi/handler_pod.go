package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/game-night/internal/usecase"
)

func (h *Handler) SuggestPods(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SuggestPods")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	podSize := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("pod_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: pod_size must be an integer", usecase.ErrInvalidInput))
			return
		}
		podSize = parsed
	}

	suggestion, err := h.suggestionService.SuggestPods(ctx, sessionID, podSize)
	if err != nil {
		h.logger.WarnContext(ctx, "suggest pods failed", "session_id", sessionID, "pod_size", podSize, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, podSuggestionToDTO(suggestion))
}

func (h *Handler) CreatePod(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePod")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req createPodRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.podService.CreatePod(ctx, usecase.CreatePodInput{
		SessionID: sessionID,
		CreatorID: principal.UserID,
		PlayerIDs: req.PlayerIDs,
		TurnOrder: req.TurnOrder,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create pod failed", "session_id", sessionID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, podToDTO(item))
}

func (h *Handler) GetPod(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPod")
	defer span.End()

	podID := strings.TrimSpace(r.PathValue("podID"))
	item, err := h.podService.GetPod(ctx, podID)
	if err != nil {
		h.logger.WarnContext(ctx, "get pod failed", "pod_id", podID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, podToDTO(item))
}

func (h *Handler) ListSessionPods(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSessionPods")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	items, err := h.podService.ListSessionPods(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list session pods failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, podListToDTO(items))
}

func (h *Handler) UpdatePodStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePodStatus")
	defer span.End()

	podID := strings.TrimSpace(r.PathValue("podID"))
	var req updatePodStatusRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.podService.UpdatePodStatus(ctx, usecase.UpdatePodStatusInput{
		PodID:   podID,
		Status:  req.ConfirmationStatus,
		Results: req.Results,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update pod status failed", "pod_id", podID, "status", req.ConfirmationStatus, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, podToDTO(item))
}

func (h *Handler) GetMatchupMatrix(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchupMatrix")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	view, err := h.matchupService.MatrixView(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get matchup matrix failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matrixViewToDTO(view))
}
