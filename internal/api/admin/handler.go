package admin

import (
	"github.com/openctf/arena/internal/config"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/scoreboard"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the admin API handlers.
type Handler struct {
	cfg       *config.Config
	db        *gorm.DB
	ledger    *ledger.Ledger
	projector *scoreboard.Projector
	broker    *pubsub.Broker
}

// NewHandler creates a new admin handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	ldg *ledger.Ledger,
	projector *scoreboard.Projector,
	broker *pubsub.Broker,
) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		ledger:    ldg,
		projector: projector,
		broker:    broker,
	}
}
