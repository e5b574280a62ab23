package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/engine"
	"github.com/openctf/arena/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// challengeRequest carries the plaintext flag; only its hash is stored.
type challengeRequest struct {
	Title       string `json:"title" binding:"required"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	ScoringType string `json:"scoring_type" binding:"required,oneof=static linear dynamic"`
	MaxPoints   int    `json:"max_points" binding:"required,gt=0"`
	MinPoints   int    `json:"min_points"`
	Decay       int    `json:"decay"`
	Flag        string `json:"flag"`
	IsVisible   bool   `json:"is_visible"`
}

func (h *Handler) getAllChallenges(c *gin.Context) {
	chs, err := database.GetAllChallenges(h.db, false)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, chs, "Challenges retrieved")
}

func (h *Handler) createChallenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.Flag == "" {
		util.Error(c, http.StatusBadRequest, "flag is required")
		return
	}

	ch := models.Challenge{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		ScoringType: models.ScoringType(req.ScoringType),
		MaxPoints:   req.MaxPoints,
		MinPoints:   req.MinPoints,
		Decay:       req.Decay,
		FlagHash:    engine.HashFlag(req.Flag),
		IsVisible:   req.IsVisible,
	}
	if err := database.CreateChallenge(h.db, &ch); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	zap.S().Infof("admin created challenge %s (%s)", ch.Title, ch.ID)
	util.Success(c, ch, "Challenge created")
}

func (h *Handler) updateChallenge(c *gin.Context) {
	ch, err := database.GetChallengeByID(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "challenge not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	ch.Title = req.Title
	ch.Category = req.Category
	ch.Difficulty = req.Difficulty
	ch.ScoringType = models.ScoringType(req.ScoringType)
	ch.MaxPoints = req.MaxPoints
	ch.MinPoints = req.MinPoints
	ch.Decay = req.Decay
	ch.IsVisible = req.IsVisible
	// Rotating the flag does not touch existing solves or awarded points.
	if req.Flag != "" {
		ch.FlagHash = engine.HashFlag(req.Flag)
	}

	if err := database.UpdateChallenge(h.db, ch); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	zap.S().Infof("admin updated challenge %s", ch.ID)
	util.Success(c, ch, "Challenge updated")
}

func (h *Handler) deleteChallenge(c *gin.Context) {
	if err := database.DeleteChallenge(h.db, c.Param("id")); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Warnf("admin deleted challenge %s", c.Param("id"))
	util.Success(c, nil, "Challenge deleted")
}

func (h *Handler) getChallengeSolves(c *gin.Context) {
	solves, err := h.ledger.SolvesForChallenge(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, solves, "Solves retrieved")
}
