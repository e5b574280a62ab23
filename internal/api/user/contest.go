package user

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/util"
)

func (h *Handler) getActiveContest(c *gin.Context) {
	active, err := h.clock.ActiveContest(c.Request.Context())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if active == nil {
		util.Error(c, http.StatusNotFound, "no active contest")
		return
	}

	now := time.Now()
	util.Success(c, gin.H{
		"contest": active,
		"state":   contest.Resolve(active.StartTime, active.EndTime, now).String(),
		"frozen":  contest.Frozen(active, now) != nil,
	}, "Contest retrieved")
}

func (h *Handler) getContestRounds(c *gin.Context) {
	active, err := h.clock.ActiveContest(c.Request.Context())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if active == nil {
		util.Error(c, http.StatusNotFound, "no active contest")
		return
	}

	rounds, err := database.GetRoundsByContestID(h.db, active.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	// Rounds whose visible_from is still in the future are not announced.
	now := time.Now()
	type roundView struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Order     int       `json:"order"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		State     string    `json:"state"`
	}
	views := make([]roundView, 0, len(rounds))
	for i := range rounds {
		r := &rounds[i]
		if now.Before(r.VisibleFrom) {
			continue
		}
		views = append(views, roundView{
			ID:        r.ID,
			Name:      r.Name,
			Order:     r.Order,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			State:     contest.Resolve(r.StartTime, r.EndTime, now).String(),
		})
	}
	util.Success(c, views, "Rounds retrieved")
}

func (h *Handler) getNotifications(c *gin.Context) {
	notifications, err := database.GetAllNotifications(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, notifications, "Notifications retrieved")
}
