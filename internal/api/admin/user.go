package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/util"
)

func (h *Handler) getAllUsers(c *gin.Context) {
	users, err := database.GetAllUsers(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, users, "Users retrieved successfully")
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := database.GetUserByID(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusNotFound, "user not found")
		return
	}
	util.Success(c, user, "ok")
}
