package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/usecase"
)

type attendanceAction func(ctx context.Context, input usecase.AttendanceInput) (usecase.AttendanceResult, error)

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckIn")
	defer span.End()

	h.selfAttendance(ctx, w, r, "check in", h.attendanceService.CheckIn)
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckOut")
	defer span.End()

	h.selfAttendance(ctx, w, r, "check out", h.attendanceService.CheckOut)
}

func (h *Handler) AdminCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminCheckIn")
	defer span.End()

	h.adminAttendance(ctx, w, r, "admin check in", h.attendanceService.CheckIn)
}

func (h *Handler) AdminCheckOut(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminCheckOut")
	defer span.End()

	h.adminAttendance(ctx, w, r, "admin check out", h.attendanceService.CheckOut)
}

func (h *Handler) selfAttendance(ctx context.Context, w http.ResponseWriter, r *http.Request, op string, action attendanceAction) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	result, err := action(ctx, usecase.AttendanceInput{
		SessionID: sessionID,
		UserID:    principal.UserID,
		Source:    attendance.SourceSelf,
	})
	if err != nil {
		h.logger.WarnContext(ctx, op+" failed", "session_id", sessionID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, attendanceStatus(result.Outcome), attendanceResultToDTO(result))
}

func (h *Handler) adminAttendance(ctx context.Context, w http.ResponseWriter, r *http.Request, op string, action attendanceAction) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req adminAttendanceRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := action(ctx, usecase.AttendanceInput{
		SessionID: sessionID,
		UserID:    req.UserID,
		Source:    attendance.SourceAdmin,
		Force:     req.Force,
	})
	if err != nil {
		h.logger.WarnContext(ctx, op+" failed",
			"session_id", sessionID,
			"user_id", req.UserID,
			"admin_id", principal.UserID,
			"force", req.Force,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, op,
		"session_id", sessionID,
		"user_id", req.UserID,
		"admin_id", principal.UserID,
		"outcome", result.Outcome,
		"force", req.Force,
	)
	writeSuccess(ctx, w, attendanceStatus(result.Outcome), attendanceResultToDTO(result))
}

func (h *Handler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAttendees")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	items, err := h.attendanceService.ListActiveAttendees(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list attendees failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, attendanceListToDTO(items))
}

func (h *Handler) RecordPollResponse(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordPollResponse")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req pollResponseRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.attendanceService.RecordPollResponse(ctx, sessionID, req.UserID, *req.Attending)
	if err != nil {
		h.logger.WarnContext(ctx, "record poll response failed", "session_id", sessionID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, attendanceStatus(result.Outcome), attendanceResultToDTO(result))
}

func attendanceStatus(outcome attendance.Outcome) int {
	if outcome.Created() {
		return http.StatusCreated
	}
	return http.StatusOK
}
