package server

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dhruvm/splitchat/internal/assist"
	"github.com/dhruvm/splitchat/internal/calculator"
	"github.com/dhruvm/splitchat/internal/middleware"
	"github.com/dhruvm/splitchat/internal/models"
	"github.com/dhruvm/splitchat/internal/session"
)

type createSessionRequest struct {
	// Image is the base64-encoded receipt image. A data URL prefix
	// ("data:image/png;base64,") is tolerated and stripped.
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
}

type commandRequest struct {
	Command string `json:"command"`
}

type tipRequest struct {
	TipPercent float64 `json:"tipPercent"`
}

type sessionResponse struct {
	SessionID  string                     `json:"sessionId"`
	Token      string                     `json:"token,omitempty"`
	State      session.State              `json:"state"`
	Receipt    *models.Receipt            `json:"receipt,omitempty"`
	TipPercent float64                    `json:"tipPercent"`
	Bill       models.Bill                `json:"bill,omitempty"`
	Summary    []calculator.PersonSummary `json:"summary,omitempty"`
	History    []models.ChatTurn          `json:"history"`
	Reply      string                     `json:"reply,omitempty"`
}

func (s *Server) sessionResponse(ctrl *session.Controller) *sessionResponse {
	resp := &sessionResponse{
		SessionID:  ctrl.ID(),
		State:      ctrl.State(),
		Receipt:    ctrl.Receipt(),
		TipPercent: ctrl.Tip(),
		Bill:       ctrl.Bill(),
		History:    ctrl.History(),
	}
	if resp.Receipt != nil && resp.Bill != nil {
		resp.Summary = calculator.Summarize(resp.Bill, resp.Receipt, resp.TipPercent)
	}
	return resp
}

// handleCreateSession ingests a receipt image and starts a new session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	raw := req.Image
	if i := strings.Index(raw, ";base64,"); i >= 0 {
		raw = raw[i+len(";base64,"):]
	}
	image, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image must be base64-encoded")
		return
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	ctrl := session.New(s.extractor, s.interpreter, s.store)
	if err := ctrl.SetTip(s.defaultTip); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to initialize session")
		return
	}

	if _, err := ctrl.UploadReceipt(r.Context(), image, mimeType); err != nil {
		var extractionErr *assist.ExtractionError
		if errors.As(err, &extractionErr) {
			middleware.CollaboratorFailures.WithLabelValues("extraction").Inc()
			writeError(w, http.StatusUnprocessableEntity, "Failed to analyze receipt. Please try another image.")
			return
		}
		slog.Error("Receipt upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process receipt")
		return
	}

	token, err := s.tokens.Issue(ctrl.ID())
	if err != nil {
		slog.Error("Failed to issue session token", "session_id", ctrl.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	s.mu.Lock()
	s.sessions[ctrl.ID()] = ctrl
	s.mu.Unlock()
	middleware.SessionsCreated.Inc()

	resp := s.sessionResponse(ctrl)
	resp.Token = token
	writeJSON(w, http.StatusCreated, resp)
}

// handleGetSession returns the current state of a session, including the
// per-person summary derived on read.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.getSession(r)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(ctrl))
}

// handleSubmitCommand applies one chat command to the session's bill.
func (s *Server) handleSubmitCommand(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.getSession(r)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req commandRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Command) == "" {
		writeError(w, http.StatusBadRequest, "command is required")
		return
	}

	turn, err := ctrl.SubmitCommand(r.Context(), strings.TrimSpace(req.Command))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			writeError(w, http.StatusConflict, "another update is in progress, try again")
		case errors.Is(err, session.ErrNoReceipt):
			writeError(w, http.StatusConflict, "no receipt has been uploaded")
		default:
			var interpretationErr *assist.InterpretationError
			if errors.As(err, &interpretationErr) {
				middleware.CollaboratorFailures.WithLabelValues("interpretation").Inc()
				writeError(w, http.StatusUnprocessableEntity, "Could not process the command. Please try rephrasing.")
				return
			}
			slog.Error("Command failed", "session_id", ctrl.ID(), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to process command")
		}
		return
	}
	middleware.CommandsApplied.Inc()

	resp := s.sessionResponse(ctrl)
	resp.Reply = turn.Bot
	writeJSON(w, http.StatusOK, resp)
}

// handleSetTip updates the session's tip percentage.
func (s *Server) handleSetTip(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.getSession(r)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req tipRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := ctrl.SetTip(req.TipPercent); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(ctrl))
}

// handleListSessions lists persisted sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"sessions": []any{}})
		return
	}
	summaries, err := s.store.ListSessions(r.Context())
	if err != nil {
		slog.Error("Failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	type summaryResponse struct {
		SessionID string  `json:"sessionId"`
		CreatedAt int64   `json:"createdAt"`
		UpdatedAt int64   `json:"updatedAt"`
		Total     float64 `json:"total"`
		People    int     `json:"people"`
	}
	out := make([]summaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, summaryResponse{
			SessionID: summary.ID,
			CreatedAt: summary.CreatedAt,
			UpdatedAt: summary.UpdatedAt,
			Total:     summary.Total,
			People:    summary.People,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}
