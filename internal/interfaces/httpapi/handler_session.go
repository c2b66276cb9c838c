package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/game-night/internal/usecase"
)

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSession")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createSessionRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.CreateSession(ctx, usecase.CreateSessionInput{
		LeagueID:  req.LeagueID,
		Date:      req.SessionDate,
		Name:      req.Name,
		CreatedBy: principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create session failed", "league_id", req.LeagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, sessionToDTO(item))
}

func (h *Handler) UpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSessionStatus")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req updateSessionStatusRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.SetStatus(ctx, sessionID, req.Status)
	if err != nil {
		h.logger.WarnContext(ctx, "update session status failed", "session_id", sessionID, "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) LockSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LockSession")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	item, err := h.sessionService.Lock(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "lock session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) ReopenSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReopenSession")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	item, err := h.sessionService.Reopen(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "reopen session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) ListLeagueSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagueSessions")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	items, err := h.sessionService.ListLeagueSessions(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list league sessions failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]sessionSummaryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, sessionSummaryToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetCurrentSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentSession")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	item, err := h.sessionService.CurrentSession(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get current session failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSession")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	detail, err := h.sessionService.GetSession(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionDetailToDTO(detail))
}
