package user

import (
	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/api"
	"github.com/openctf/arena/internal/cache"
	"github.com/openctf/arena/internal/config"
	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/engine"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/scoreboard"
	"gorm.io/gorm"
)

// NewUserRouter creates and configures the player-facing Gin engine.
func NewUserRouter(
	cfg *config.Config,
	db *gorm.DB,
	eng *engine.Engine,
	clock *contest.Clock,
	ldg *ledger.Ledger,
	projector *scoreboard.Projector,
	broker *pubsub.Broker,
	sbCache *cache.ScoreboardCache) *gin.Engine {

	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, eng, clock, ldg, projector, broker, sbCache)

	v1 := r.Group("/api/v1")
	{
		// Auth
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/status", h.getAuthStatus)

			if cfg.Auth.Local.Enabled {
				localAuthGroup := authGroup.Group("/local")
				{
					localAuthGroup.POST("/register", h.localRegister)
					localAuthGroup.POST("/login", h.localLogin)
				}
			}
		}

		// Live event stream with token in query (browsers cannot set
		// headers on websocket connects)
		v1.GET("/ws/events", h.handleEventsWs)

		// Publicly accessible info
		v1.GET("/contest", h.getActiveContest)
		v1.GET("/contest/rounds", h.getContestRounds)
		v1.GET("/scoreboard", h.getScoreboard)
		v1.GET("/scoreboard/progression/:teamID", h.getProgression)
		v1.GET("/notifications", h.getNotifications)
		v1.GET("/users/:id", h.getPublicUserProfile)

		// Authenticated routes
		authed := v1.Group("/")
		authed.Use(api.AuthMiddleware(cfg.Auth.JWT.Secret))
		{
			profile := authed.Group("/user")
			{
				profile.GET("/profile", h.getUserProfile)
				profile.PATCH("/profile", h.updateUserProfile)
			}

			teams := authed.Group("/teams")
			{
				teams.POST("", h.createTeam)
				teams.POST("/:id/join", h.joinTeam)
				teams.GET("/:id", h.getTeam)
			}

			authed.GET("/challenges", h.getChallenges)
			authed.GET("/challenges/:id", h.getChallenge)
			authed.GET("/challenges/:id/solves", h.getChallengeSolves)
			authed.POST("/challenges/:id/submit", h.submitFlag)

			authed.GET("/submissions", h.getOwnSubmissions)
		}
	}

	return r
}
