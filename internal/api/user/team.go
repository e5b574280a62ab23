package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) createTeam(c *gin.Context) {
	userID := c.GetString("userID")
	caller, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	if caller.TeamID != "" {
		util.Error(c, http.StatusConflict, "you already belong to a team")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	team := models.Team{
		ID:       uuid.NewString(),
		Name:     req.Name,
		LeaderID: caller.ID,
	}
	if err := database.CreateTeam(h.db, &team); err != nil {
		util.Error(c, http.StatusConflict, "team name already taken")
		return
	}
	if err := database.JoinTeam(h.db, caller.ID, team.ID); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	zap.S().Infof("team %s created by %s", team.Name, caller.Username)
	util.Success(c, team, "Team created")
}

func (h *Handler) joinTeam(c *gin.Context) {
	userID := c.GetString("userID")
	teamID := c.Param("id")

	caller, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	if caller.TeamID != "" {
		util.Error(c, http.StatusConflict, "you already belong to a team")
		return
	}

	team, err := database.GetTeamByID(h.db, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "team not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	if err := database.JoinTeam(h.db, caller.ID, team.ID); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, team, "Joined team")
}

func (h *Handler) getTeam(c *gin.Context) {
	team, err := database.GetTeamByID(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "team not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	members, err := database.GetTeamMembers(h.db, team.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, gin.H{"team": team, "members": members}, "ok")
}
