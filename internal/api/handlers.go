package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lauri/vocaflow/internal/errors"
	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/session"
)

type Server struct {
	Manager *session.Manager
}

type loginRequest struct {
	UserID string `json:"user_id"`
}

type loginResponse struct {
	Token   string             `json:"token"`
	Session models.SessionView `json:"session"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		handleError(w, r, errors.NewValidationError("user_id", "must not be empty"))
		return
	}

	token, sess, err := s.Manager.Login(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("learner signed in: user=%s", userID)
	respondJSON(w, http.StatusOK, loginResponse{Token: token, Session: sess.View()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	token := bearerToken(r)
	if err := s.Manager.Logout(token); err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("learner signed out")
	w.WriteHeader(http.StatusNoContent)
}

// sessionView is the session plus the content of the item under the cursor.
type sessionView struct {
	models.SessionView
	CurrentItem *models.Item `json:"current_item,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, viewWithItem(sess))
}

func viewWithItem(sess *session.Session) sessionView {
	v := sessionView{SessionView: sess.View()}
	if v.CurrentItemID != "" {
		if item, ok := sess.Item(v.CurrentItemID); ok {
			v.CurrentItem = &item
		}
	}
	return v
}

type answerRequest struct {
	ItemID      string `json:"item_id"`
	Correct     bool   `json:"correct"`
	UsedHint    bool   `json:"used_hint"`
	UsedExample bool   `json:"used_example"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.ItemID == "" {
		handleError(w, r, errors.NewValidationError("item_id", "must not be empty"))
		return
	}

	result, err := sess.SubmitAnswer(req.ItemID, req.Correct, req.UsedHint, req.UsedExample)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	sess.Advance()
	respondJSON(w, http.StatusOK, viewWithItem(sess))
}

func (s *Server) handleStartDifficultReview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if err := sess.StartDifficultReview(); err != nil {
		if err == session.ErrNothingToReview {
			handleError(w, r, errors.NewValidationError("mode", "no difficult items to review"))
			return
		}
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewWithItem(sess))
}

func (s *Server) handleReturnFromReview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if err := sess.ReturnFromReview(); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewWithItem(sess))
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if err := sess.StartReviewOfToday(); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewWithItem(sess))
}

func (s *Server) handleStartEndless(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if err := sess.StartEndless(); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewWithItem(sess))
}

type targetRequest struct {
	Target uint `json:"target"`
}

type targetResponse struct {
	ChallengeComplete bool               `json:"challenge_complete"`
	Session           models.SessionView `json:"session"`
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req targetRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	completed, err := sess.SetDailyTarget(req.Target)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, targetResponse{ChallengeComplete: completed, Session: sess.View()})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, sess.Readiness())
}

type grammarSessionRequest struct {
	FullyCorrect bool `json:"fully_correct"`
}

func (s *Server) handleGrammarSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	ruleID := chi.URLParam(r, "id")

	var req grammarSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := sess.RecordGrammarSession(ruleID, req.FullyCorrect); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
