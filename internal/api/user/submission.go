package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/engine"
	"github.com/openctf/arena/internal/util"
)

func (h *Handler) submitFlag(c *gin.Context) {
	var req struct {
		Flag string `json:"flag" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	caller, err := database.GetUserByID(h.db, c.GetString("userID"))
	if err != nil {
		util.Error(c, http.StatusNotFound, "user not found")
		return
	}

	id := engine.Identity{UserID: caller.ID, TeamID: caller.TeamID}
	result, err := h.engine.Submit(c.Request.Context(), id, c.Param("id"), req.Flag, c.ClientIP())
	if err != nil {
		if errors.Is(err, engine.ErrChallengeNotFound) {
			util.Error(c, http.StatusNotFound, "challenge not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	switch result.Outcome {
	case engine.OutcomeRateLimited:
		// Round up: retrying at the advertised second must succeed.
		seconds := int64((result.RetryAfter + time.Second - 1) / time.Second)
		util.RateLimited(c, seconds)
	case engine.OutcomeTimingInvalid, engine.OutcomeTeamRequired:
		util.Error(c, http.StatusForbidden, result.Message)
	default:
		// A resubmission of an already-credited flag was still correct, so
		// correct and already_solved are both true on that path.
		correct := result.Outcome == engine.OutcomeCredited ||
			result.Outcome == engine.OutcomeAlreadySolved
		util.Success(c, gin.H{
			"correct":        correct,
			"already_solved": result.Outcome == engine.OutcomeAlreadySolved,
			"points":         result.Points,
			"solve_count":    result.SolveCount,
			"message":        result.Message,
		}, "Submission processed")
	}
}

func (h *Handler) getOwnSubmissions(c *gin.Context) {
	caller, err := database.GetUserByID(h.db, c.GetString("userID"))
	if err != nil {
		util.Error(c, http.StatusNotFound, "user not found")
		return
	}

	key := caller.TeamID
	if key == "" {
		key = caller.ID
	}
	subs, err := h.ledger.AttemptsForIdentity(c.Request.Context(), key, c.Query("challenge_id"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, subs, "ok")
}
