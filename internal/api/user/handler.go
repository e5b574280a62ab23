package user

import (
	"github.com/openctf/arena/internal/cache"
	"github.com/openctf/arena/internal/config"
	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/engine"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/scoreboard"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the user API handlers.
type Handler struct {
	cfg       *config.Config
	db        *gorm.DB
	engine    *engine.Engine
	clock     *contest.Clock
	ledger    *ledger.Ledger
	projector *scoreboard.Projector
	broker    *pubsub.Broker
	sbCache   *cache.ScoreboardCache // nil when redis is not configured
}

// NewHandler creates a new user handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	eng *engine.Engine,
	clock *contest.Clock,
	ldg *ledger.Ledger,
	projector *scoreboard.Projector,
	broker *pubsub.Broker,
	sbCache *cache.ScoreboardCache,
) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		engine:    eng,
		clock:     clock,
		ledger:    ldg,
		projector: projector,
		broker:    broker,
		sbCache:   sbCache,
	}
}
