package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/api"
	"github.com/openctf/arena/internal/config"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/scoreboard"
	"gorm.io/gorm"
)

// NewAdminRouter creates and configures the admin Gin engine. It binds to a
// separate listen address; access control is expected at the network layer.
func NewAdminRouter(
	cfg *config.Config,
	db *gorm.DB,
	ldg *ledger.Ledger,
	projector *scoreboard.Projector,
	broker *pubsub.Broker) *gin.Engine {

	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, ldg, projector, broker)

	v1 := r.Group("/api/v1")
	{
		// User Management
		users := v1.Group("/users")
		{
			users.GET("", h.getAllUsers)
			users.GET("/:id", h.getUser)
		}

		// Challenge Management
		challenges := v1.Group("/challenges")
		{
			challenges.GET("", h.getAllChallenges)
			challenges.POST("", h.createChallenge)
			challenges.PUT("/:id", h.updateChallenge)
			challenges.DELETE("/:id", h.deleteChallenge)
			challenges.GET("/:id/solves", h.getChallengeSolves)
		}

		// Contest & Round Management
		contests := v1.Group("/contests")
		{
			contests.GET("", h.getAllContests)
			contests.POST("", h.createContest)
			contests.PUT("/:id", h.updateContest)
			contests.POST("/:id/activate", h.activateContest)
			contests.POST("/:id/rounds", h.createRound)
			contests.GET("/:id/challenges", h.getContestChallenges)
		}

		rounds := v1.Group("/rounds")
		{
			rounds.PUT("/:id", h.updateRound)
			rounds.DELETE("/:id", h.deleteRound)
			rounds.POST("/:id/challenges/:challengeID", h.attachChallenge)
			rounds.DELETE("/:id/challenges/:challengeID", h.detachChallenge)
		}

		// Notification Management
		notifications := v1.Group("/notifications")
		{
			notifications.POST("", h.createNotification)
			notifications.PUT("/:id", h.updateNotification)
			notifications.DELETE("/:id", h.deleteNotification)
		}

		// Scoreboard Management
		scores := v1.Group("/scoreboard")
		{
			scores.GET("/live", h.getLiveScoreboard)
			scores.POST("/rebuild", h.rebuildScoreboard)
		}
	}

	return r
}
