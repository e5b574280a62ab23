package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/scoring"
	"github.com/openctf/arena/internal/util"
	"gorm.io/gorm"
)

// challengeView is a Challenge plus its derived current value. Points for a
// prospective solver depend on how many teams already solved it.
type challengeView struct {
	models.Challenge
	CurrentPoints int  `json:"current_points"`
	Solved        bool `json:"solved"`
}

func currentPoints(ch *models.Challenge) int {
	return scoring.Points(scoring.Policy{
		Type:      string(ch.ScoringType),
		MaxPoints: ch.MaxPoints,
		MinPoints: ch.MinPoints,
		Decay:     ch.Decay,
	}, ch.SolveCount)
}

func (h *Handler) creditKeyFor(c *gin.Context) string {
	caller, err := database.GetUserByID(h.db, c.GetString("userID"))
	if err != nil {
		return ""
	}
	if caller.TeamID != "" {
		return caller.TeamID
	}
	return caller.ID
}

func (h *Handler) getChallenges(c *gin.Context) {
	chs, err := database.GetAllChallenges(h.db, true)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	var contestID string
	if active, err := h.clock.ActiveContest(c.Request.Context()); err == nil && active != nil {
		contestID = active.ID
	}

	creditKey := h.creditKeyFor(c)
	views := make([]challengeView, 0, len(chs))
	for i := range chs {
		solved := false
		if creditKey != "" {
			solved, _ = h.ledger.HasSolve(c.Request.Context(), creditKey, chs[i].ID, contestID)
		}
		views = append(views, challengeView{
			Challenge:     chs[i],
			CurrentPoints: currentPoints(&chs[i]),
			Solved:        solved,
		})
	}
	util.Success(c, views, "Challenges retrieved")
}

func (h *Handler) getChallenge(c *gin.Context) {
	ch, err := database.GetChallengeByID(h.db, c.Param("id"))
	if err != nil || !ch.IsVisible {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusInternalServerError, err)
			return
		}
		util.Error(c, http.StatusNotFound, "challenge not found")
		return
	}
	util.Success(c, challengeView{Challenge: *ch, CurrentPoints: currentPoints(ch)}, "ok")
}

func (h *Handler) getChallengeSolves(c *gin.Context) {
	ch, err := database.GetChallengeByID(h.db, c.Param("id"))
	if err != nil || !ch.IsVisible {
		util.Error(c, http.StatusNotFound, "challenge not found")
		return
	}

	solves, err := h.ledger.SolvesForChallenge(c.Request.Context(), ch.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, solves, "Solves retrieved")
}
