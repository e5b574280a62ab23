package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contestRequest struct {
	Name       string     `json:"name" binding:"required"`
	StartTime  time.Time  `json:"start_time" binding:"required"`
	EndTime    time.Time  `json:"end_time" binding:"required"`
	FreezeTime *time.Time `json:"freeze_time"`
	TeamMode   bool       `json:"team_mode"`
}

func (r *contestRequest) validate() error {
	if !r.EndTime.After(r.StartTime) {
		return errors.New("end_time must be after start_time")
	}
	if r.FreezeTime != nil && (r.FreezeTime.Before(r.StartTime) || r.FreezeTime.After(r.EndTime)) {
		return errors.New("freeze_time must fall within the contest window")
	}
	return nil
}

func (h *Handler) getAllContests(c *gin.Context) {
	contests, err := database.GetAllContests(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, contests, "Contests retrieved")
}

func (h *Handler) createContest(c *gin.Context) {
	var req contestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	contest := models.Contest{
		ID:         uuid.NewString(),
		Name:       req.Name,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		FreezeTime: req.FreezeTime,
		TeamMode:   req.TeamMode,
	}
	if err := database.CreateContest(h.db, &contest); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	zap.S().Infof("admin created contest %s (%s)", contest.Name, contest.ID)
	util.Success(c, contest, "Contest created")
}

func (h *Handler) updateContest(c *gin.Context) {
	contest, err := database.GetContestByID(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "contest not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	var req contestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	contest.Name = req.Name
	contest.StartTime = req.StartTime
	contest.EndTime = req.EndTime
	contest.FreezeTime = req.FreezeTime
	contest.TeamMode = req.TeamMode

	if err := database.UpdateContest(h.db, contest); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, contest, "Contest updated")
}

// activateContest makes this contest the one live submissions are attributed
// to. Any previously active contest is deactivated in the same transaction.
func (h *Handler) activateContest(c *gin.Context) {
	if err := database.SetActiveContest(h.db, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "contest not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	zap.S().Infof("admin activated contest %s", c.Param("id"))
	util.Success(c, nil, "Contest activated")
}

// getContestChallenges lists the challenge ids attached to any of the
// contest's rounds, for auditing round assignments.
func (h *Handler) getContestChallenges(c *gin.Context) {
	if _, err := database.GetContestByID(h.db, c.Param("id")); err != nil {
		util.Error(c, http.StatusNotFound, "contest not found")
		return
	}

	ids, err := database.GetChallengeIDsForContest(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, gin.H{"challenge_ids": ids}, "Contest challenges retrieved")
}

type roundRequest struct {
	Name        string    `json:"name" binding:"required"`
	Order       int       `json:"order"`
	VisibleFrom time.Time `json:"visible_from" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

func (h *Handler) createRound(c *gin.Context) {
	contest, err := database.GetContestByID(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusNotFound, "contest not found")
		return
	}

	var req roundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	round := models.ContestRound{
		ID:          uuid.NewString(),
		ContestID:   contest.ID,
		Name:        req.Name,
		Order:       req.Order,
		VisibleFrom: req.VisibleFrom,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := database.CreateRound(h.db, &round); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, round, "Round created")
}

func (h *Handler) updateRound(c *gin.Context) {
	round, err := database.GetRoundByID(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusNotFound, "round not found")
		return
	}

	var req roundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	round.Name = req.Name
	round.Order = req.Order
	round.VisibleFrom = req.VisibleFrom
	round.StartTime = req.StartTime
	round.EndTime = req.EndTime

	if err := database.UpdateRound(h.db, round); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, round, "Round updated")
}

func (h *Handler) deleteRound(c *gin.Context) {
	if err := database.DeleteRound(h.db, c.Param("id")); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Round deleted")
}

func (h *Handler) attachChallenge(c *gin.Context) {
	if err := database.AttachChallengeToRound(h.db, c.Param("id"), c.Param("challengeID")); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Challenge attached to round")
}

func (h *Handler) detachChallenge(c *gin.Context) {
	if err := database.DetachChallengeFromRound(h.db, c.Param("id"), c.Param("challengeID")); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Challenge detached from round")
}
