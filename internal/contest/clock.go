// Package contest resolves, for a challenge and a timestamp, whether
// submissions are currently accepted and whether the public scoreboard is
// frozen. States are computed from the configured times on every call; no
// scheduler flips rounds on or off.
package contest

import (
	"context"
	"time"

	"github.com/openctf/arena/internal/database/models"
)

type Window int

const (
	NotStarted Window = iota
	Running
	Ended
)

func (w Window) String() string {
	switch w {
	case NotStarted:
		return "not_started"
	case Ended:
		return "ended"
	default:
		return "running"
	}
}

// Resolve places now within a [start, end] window.
func Resolve(start, end, now time.Time) Window {
	if now.Before(start) {
		return NotStarted
	}
	if now.After(end) {
		return Ended
	}
	return Running
}

// RoundOpen reports whether a round accepts submissions at now. A round is
// closed before its visible_from even when its start time has passed.
func RoundOpen(r *models.ContestRound, now time.Time) bool {
	if now.Before(r.VisibleFrom) {
		return false
	}
	return Resolve(r.StartTime, r.EndTime, now) == Running
}

// Frozen returns the contest's freeze time when the public scoreboard should
// stop reflecting new solves, or nil while live.
func Frozen(c *models.Contest, now time.Time) *time.Time {
	if c == nil || c.FreezeTime == nil {
		return nil
	}
	// Freeze lifts once the contest is over.
	if now.After(c.EndTime) {
		return nil
	}
	if now.Before(*c.FreezeTime) {
		return nil
	}
	return c.FreezeTime
}

// Store is the read-only contest configuration the clock consults. The admin
// side owns writes.
type Store interface {
	ActiveContest(ctx context.Context) (*models.Contest, error)
	RoundsForChallenge(ctx context.Context, contestID, challengeID string) ([]models.ContestRound, error)
	RoundsForContest(ctx context.Context, contestID string) ([]models.ContestRound, error)
}

type Clock struct {
	store Store
}

func NewClock(store Store) *Clock {
	return &Clock{store: store}
}

// ActiveContest exposes the store's notion of the one active contest.
func (c *Clock) ActiveContest(ctx context.Context) (*models.Contest, error) {
	return c.store.ActiveContest(ctx)
}

// IsSubmittable reports whether the challenge accepts submissions at now. It
// returns the active contest so callers can attribute the solve without a
// second lookup.
func (c *Clock) IsSubmittable(ctx context.Context, challengeID string, now time.Time) (bool, *models.Contest, error) {
	active, err := c.store.ActiveContest(ctx)
	if err != nil {
		return false, nil, err
	}
	if active == nil {
		return false, nil, nil
	}
	if Resolve(active.StartTime, active.EndTime, now) != Running {
		return false, active, nil
	}

	rounds, err := c.store.RoundsForChallenge(ctx, active.ID, challengeID)
	if err != nil {
		return false, active, err
	}
	if len(rounds) == 0 {
		// A contest without rounds gates only on its own window. One with
		// rounds rejects challenges that belong to none of them.
		all, err := c.store.RoundsForContest(ctx, active.ID)
		if err != nil {
			return false, active, err
		}
		return len(all) == 0, active, nil
	}

	for i := range rounds {
		if RoundOpen(&rounds[i], now) {
			return true, active, nil
		}
	}
	return false, active, nil
}
