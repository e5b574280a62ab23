package user

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/scoreboard"
	"github.com/openctf/arena/internal/util"
)

// getScoreboard serves the public ranking. While the contest is frozen the
// board is computed as of the freeze time; solves keep landing in the ledger
// and surface when the freeze lifts.
func (h *Handler) getScoreboard(c *gin.Context) {
	active, err := h.clock.ActiveContest(c.Request.Context())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if active == nil {
		util.Error(c, http.StatusNotFound, "no active contest")
		return
	}

	mode := scoreboard.ModeTeam
	if c.Query("mode") == string(scoreboard.ModeUser) {
		mode = scoreboard.ModeUser
	}

	now := time.Now()
	frozen := contest.Frozen(active, now)
	variant := "public:" + string(mode)
	if frozen != nil {
		variant += ":frozen"
	}

	if h.sbCache != nil {
		if body := h.sbCache.Get(c.Request.Context(), active.ID, variant); body != nil {
			util.Success(c, json.RawMessage(body), "Scoreboard retrieved")
			return
		}
	}

	entries := h.projector.Rank(active.ID, mode, frozen)
	payload := gin.H{
		"contest_id": active.ID,
		"frozen":     frozen != nil,
		"entries":    entries,
	}

	if h.sbCache != nil {
		if body, err := json.Marshal(payload); err == nil {
			h.sbCache.Set(c.Request.Context(), active.ID, variant, body)
		}
	}
	util.Success(c, payload, "Scoreboard retrieved")
}

func (h *Handler) getProgression(c *gin.Context) {
	active, err := h.clock.ActiveContest(c.Request.Context())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if active == nil {
		util.Error(c, http.StatusNotFound, "no active contest")
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	points := h.projector.Progression(active.ID, c.Param("teamID"), days)
	util.Success(c, gin.H{
		"contest_id": active.ID,
		"team_id":    c.Param("teamID"),
		"points":     points,
	}, "Progression retrieved")
}
