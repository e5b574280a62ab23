package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/scoreboard"
	"github.com/openctf/arena/internal/util"
	"go.uber.org/zap"
)

// getLiveScoreboard serves the unfrozen ranking. Admins always see solves
// that landed after the freeze time.
func (h *Handler) getLiveScoreboard(c *gin.Context) {
	active, err := database.GetActiveContest(h.db)
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

	util.Success(c, gin.H{
		"contest_id": active.ID,
		"entries":    h.projector.Rank(active.ID, mode, nil),
	}, "Live scoreboard retrieved")
}

// rebuildScoreboard replays the solve ledger into a fresh projection. The
// escape hatch for projection drift, e.g. after a manual database edit.
func (h *Handler) rebuildScoreboard(c *gin.Context) {
	if err := h.projector.Rebuild(c.Request.Context(), h.ledger); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Info("admin rebuilt scoreboard projection from ledger")
	util.Success(c, nil, "Scoreboard rebuilt")
}
