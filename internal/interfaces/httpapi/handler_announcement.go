package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) PostPoll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PostPoll")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req postPollRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.announcementService.PostPoll(ctx, sessionID, req.CustomMessage)
	if err != nil {
		h.logger.WarnContext(ctx, "post poll failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, pollToDTO(item))
}

func (h *Handler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClosePoll")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	item, err := h.announcementService.ClosePoll(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "close poll failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) PostRecap(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PostRecap")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	item, err := h.announcementService.PostRecap(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "post recap failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}
