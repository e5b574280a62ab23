// Package engine processes one flag submission end to end: rate-limit gate,
// contest timing gate, duplicate check, flag comparison, at-most-once credit,
// then asynchronous fan-out of the resulting state change.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/ratelimit"
	"github.com/openctf/arena/internal/scoreboard"
	"github.com/openctf/arena/internal/scoring"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrChallengeNotFound marks an unknown or hidden challenge id. No attempt is
// recorded for these.
var ErrChallengeNotFound = errors.New("challenge not found")

// Outcome is the terminal state of one submission request. Policy rejections
// are outcomes, not errors; only infrastructure failure surfaces as an error.
type Outcome string

const (
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeTimingInvalid Outcome = "timing_invalid"
	OutcomeTeamRequired  Outcome = "team_required"
	OutcomeAlreadySolved Outcome = "already_solved"
	OutcomeIncorrect     Outcome = "incorrect"
	OutcomeCredited      Outcome = "credited"
)

// Result carries everything the HTTP layer needs to shape the wire response.
type Result struct {
	Outcome    Outcome
	RetryAfter time.Duration
	Points     int
	SolveCount int
	Message    string
}

// Identity is the resolved caller. TeamID is empty for solo players, in
// which case the user is credited directly.
type Identity struct {
	UserID string
	TeamID string
}

// CreditKey is the entity a solve is recorded against.
func (id Identity) CreditKey() string {
	if id.TeamID != "" {
		return id.TeamID
	}
	return id.UserID
}

// Cache is the optional response-cache hook invalidated after a credit.
type Cache interface {
	InvalidateScoreboard(ctx context.Context, contestID string)
}

type Engine struct {
	db        *gorm.DB
	limiter   ratelimit.Limiter
	clock     *contest.Clock
	ledger    *ledger.Ledger
	projector *scoreboard.Projector
	broker    *pubsub.Broker
	cache     Cache
	timeout   time.Duration
}

func New(
	db *gorm.DB,
	limiter ratelimit.Limiter,
	clock *contest.Clock,
	ldg *ledger.Ledger,
	projector *scoreboard.Projector,
	broker *pubsub.Broker,
	cache Cache,
	timeout time.Duration,
) *Engine {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Engine{
		db:        db,
		limiter:   limiter,
		clock:     clock,
		ledger:    ldg,
		projector: projector,
		broker:    broker,
		cache:     cache,
		timeout:   timeout,
	}
}

// Submit runs the submission state machine. Gates short-circuit in order:
// rate limit, timing, already-solved, flag comparison, credit. The rate gate
// runs before any flag work so a limited caller learns nothing about the
// flag, and denied attempts still count toward the window.
func (e *Engine) Submit(ctx context.Context, id Identity, challengeID, flagGuess, clientIP string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	now := time.Now()
	creditKey := id.CreditKey()

	decision, err := e.limiter.CheckAndRecord(ctx, creditKey+":"+challengeID, now)
	if err != nil {
		return Result{}, fmt.Errorf("rate limiter: %w", err)
	}
	if !decision.Allowed {
		return Result{
			Outcome:    OutcomeRateLimited,
			RetryAfter: decision.RetryAfter,
			Message:    "Too many attempts. Please wait before trying again.",
		}, nil
	}

	ch, err := database.GetChallengeByID(e.db.WithContext(ctx), challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{}, ErrChallengeNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("challenge lookup: %w", err)
	}
	if !ch.IsVisible {
		return Result{}, ErrChallengeNotFound
	}

	ok, active, err := e.clock.IsSubmittable(ctx, challengeID, now)
	if err != nil {
		return Result{}, fmt.Errorf("contest clock: %w", err)
	}
	if !ok {
		return Result{
			Outcome: OutcomeTimingInvalid,
			Message: "This challenge is not currently accepting submissions.",
		}, nil
	}
	contestID := active.ID

	// Team-mode contests credit teams only; a teamless caller must join one
	// before anything is recorded against them.
	if active.TeamMode && id.TeamID == "" {
		return Result{
			Outcome: OutcomeTeamRequired,
			Message: "This contest requires a team. Join or create one before submitting.",
		}, nil
	}

	solved, err := e.ledger.HasSolve(ctx, creditKey, challengeID, contestID)
	if err != nil {
		return Result{}, fmt.Errorf("solve lookup: %w", err)
	}
	if solved {
		return e.alreadySolved(ch), nil
	}

	correct := VerifyFlag(flagGuess, ch.FlagHash)

	attempt := ledger.Attempt{
		UserID:      id.UserID,
		TeamID:      creditKey,
		ChallengeID: challengeID,
		ContestID:   contestID,
		FlagHash:    HashFlag(flagGuess),
		IsCorrect:   correct,
		IPAddress:   clientIP,
	}
	if err := e.ledger.RecordAttempt(ctx, attempt); err != nil {
		return Result{}, fmt.Errorf("record attempt: %w", err)
	}

	if !correct {
		return Result{
			Outcome: OutcomeIncorrect,
			Message: "Incorrect flag.",
		}, nil
	}

	credit, err := e.ledger.CreditSolve(ctx, creditKey, id.UserID, challengeID, contestID, now)
	if err != nil {
		return Result{}, fmt.Errorf("credit solve: %w", err)
	}
	if !credit.Created {
		// Lost the race against a teammate; their credit stands.
		return e.alreadySolved(ch), nil
	}

	e.projector.OnCredited(contestID, creditKey, id.UserID, credit.PointsAwarded, credit.SolvedAt)

	// Fan-out never delays the submitter's response.
	go e.publishCredited(contestID, id, challengeID, credit)

	return Result{
		Outcome:    OutcomeCredited,
		Points:     credit.PointsAwarded,
		SolveCount: credit.SolveCount,
		Message:    "Flag correct!",
	}, nil
}

func (e *Engine) alreadySolved(ch *models.Challenge) Result {
	return Result{
		Outcome: OutcomeAlreadySolved,
		Points: scoring.Points(scoring.Policy{
			Type:      string(ch.ScoringType),
			MaxPoints: ch.MaxPoints,
			MinPoints: ch.MinPoints,
			Decay:     ch.Decay,
		}, ch.SolveCount),
		SolveCount: ch.SolveCount,
		Message:    "Already solved.",
	}
}

func (e *Engine) publishCredited(contestID string, id Identity, challengeID string, credit ledger.CreditResult) {
	if e.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		e.cache.InvalidateScoreboard(ctx, contestID)
		cancel()
	}

	e.broker.Publish(pubsub.TopicScoreboard, pubsub.Event{
		Type: "solve_feed",
		Payload: map[string]interface{}{
			"team_id":      id.TeamID,
			"user_id":      id.UserID,
			"challenge_id": challengeID,
			"points":       credit.PointsAwarded,
			"solve_count":  credit.SolveCount,
		},
	})
	e.broker.Publish(pubsub.TopicScoreboard, pubsub.Event{Type: "scoreboard_update"})

	zap.S().Infow("solve credited",
		"contest", contestID,
		"team", id.CreditKey(),
		"challenge", challengeID,
		"points", credit.PointsAwarded,
		"solve_count", credit.SolveCount,
	)
}
