// Package scoreboard maintains the materialized, ranked view of contest
// scores. The projector is a cache over the solve ledger, not a source of
// truth: it can be rebuilt from the ledger at any time, and rank queries may
// trail the very latest credit without breaking any invariant.
package scoreboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openctf/arena/internal/database/models"
	"go.uber.org/zap"
)

// Mode selects the ranked dimension.
type Mode string

const (
	ModeTeam Mode = "team"
	ModeUser Mode = "user"
)

// Point is one step of a cumulative score time series.
type Point struct {
	At    time.Time `json:"at"`
	Total int       `json:"total"`
}

// Entry is one row of a ranked board.
type Entry struct {
	ID        string    `json:"id"`
	Score     int       `json:"score"`
	ReachedAt time.Time `json:"reached_at"`
	Rank      int       `json:"rank"`
}

// DayPoint is one downsampled progression sample.
type DayPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

type series struct {
	total   int
	history []Point
}

func (s *series) add(points int, at time.Time) {
	s.total += points

	// Credits usually arrive in time order, but concurrent submitters read
	// their timestamps before queueing on the projector lock, so a point can
	// land behind an already-recorded one. Insert in timestamp order and
	// shift the cumulative totals after it so cutoff scans stay correct.
	i := sort.Search(len(s.history), func(j int) bool {
		return s.history[j].At.After(at)
	})
	prev := 0
	if i > 0 {
		prev = s.history[i-1].Total
	}
	s.history = append(s.history, Point{})
	copy(s.history[i+1:], s.history[i:])
	s.history[i] = Point{At: at, Total: prev + points}
	for j := i + 1; j < len(s.history); j++ {
		s.history[j].Total += points
	}
}

// scoreAt returns the cumulative total at the cutoff and the time it was
// reached. A nil cutoff means "now".
func (s *series) scoreAt(cutoff *time.Time) (int, time.Time) {
	if len(s.history) == 0 {
		return 0, time.Time{}
	}
	if cutoff == nil {
		last := s.history[len(s.history)-1]
		return last.Total, last.At
	}
	score, reached := 0, time.Time{}
	for _, p := range s.history {
		if p.At.After(*cutoff) {
			break
		}
		score, reached = p.Total, p.At
	}
	return score, reached
}

type board struct {
	teams map[string]*series
	users map[string]*series
}

func newBoard() *board {
	return &board{
		teams: make(map[string]*series),
		users: make(map[string]*series),
	}
}

type Projector struct {
	mu       sync.RWMutex
	contests map[string]*board
}

func NewProjector() *Projector {
	return &Projector{
		contests: make(map[string]*board),
	}
}

// OnCredited folds a freshly credited solve into the projection. Called by
// the submission engine after the ledger commit; points carry the frozen
// value awarded at credit time.
func (p *Projector) OnCredited(contestID, teamID, userID string, points int, solvedAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply(contestID, teamID, userID, points, solvedAt)
}

func (p *Projector) apply(contestID, teamID, userID string, points int, solvedAt time.Time) {
	b := p.contests[contestID]
	if b == nil {
		b = newBoard()
		p.contests[contestID] = b
	}
	if teamID != "" {
		s := b.teams[teamID]
		if s == nil {
			s = &series{}
			b.teams[teamID] = s
		}
		s.add(points, solvedAt)
	}
	if userID != "" {
		s := b.users[userID]
		if s == nil {
			s = &series{}
			b.users[userID] = s
		}
		s.add(points, solvedAt)
	}
}

// Rank returns the ordered board for a contest. A non-nil frozenBefore hides
// score movement at or after that instant, which is how the public view
// honors a scoreboard freeze while solves keep being credited underneath.
// Ties break in favor of whoever reached the score first.
func (p *Projector) Rank(contestID string, mode Mode, frozenBefore *time.Time) []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b := p.contests[contestID]
	if b == nil {
		return []Entry{}
	}

	var cutoff *time.Time
	if frozenBefore != nil {
		// Solves at exactly the freeze instant are hidden too.
		c := frozenBefore.Add(-time.Nanosecond)
		cutoff = &c
	}

	src := b.teams
	if mode == ModeUser {
		src = b.users
	}

	entries := make([]Entry, 0, len(src))
	for id, s := range src {
		score, reached := s.scoreAt(cutoff)
		entries = append(entries, Entry{ID: id, Score: score, ReachedAt: reached})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].ReachedAt.Equal(entries[j].ReachedAt) {
			return entries[i].ReachedAt.Before(entries[j].ReachedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Progression returns a team's cumulative score sampled once per day over the
// last windowDays days. The series never decreases.
func (p *Projector) Progression(contestID, teamID string, windowDays int) []DayPoint {
	if windowDays <= 0 {
		windowDays = 30
	}
	if windowDays > 90 {
		windowDays = 90
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]DayPoint, 0, windowDays)
	b := p.contests[contestID]
	var s *series
	if b != nil {
		s = b.teams[teamID]
	}

	now := time.Now()
	for i := windowDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
		score := 0
		if s != nil {
			score, _ = s.scoreAt(&endOfDay)
		}
		out = append(out, DayPoint{Date: day.Format("2006-01-02"), Score: score})
	}
	return out
}

// TotalFor returns a team's current projected total.
func (p *Projector) TotalFor(contestID, teamID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if b := p.contests[contestID]; b != nil {
		if s := b.teams[teamID]; s != nil {
			return s.total
		}
	}
	return 0
}

// SolveSource is the slice of the ledger the projector rebuilds from.
type SolveSource interface {
	SolvesSince(ctx context.Context, since time.Time) ([]models.Solve, error)
}

// Rebuild replays the full solve history from the ledger, replacing the
// in-memory projection. Run at startup and whenever the projection is
// suspected stale.
func (p *Projector) Rebuild(ctx context.Context, src SolveSource) error {
	solves, err := src.SolvesSince(ctx, time.Time{})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.contests = make(map[string]*board)
	for _, s := range solves {
		p.apply(s.ContestID, s.TeamID, s.UserID, s.PointsAwarded, s.SolvedAt)
	}
	p.mu.Unlock()

	zap.S().Infof("scoreboard projection rebuilt from %d solves", len(solves))
	return nil
}
