// Package ledger is the durable record of flag attempts and credited solves.
// Its unique-constraint insert is the one mechanism that orders concurrent
// credit attempts for the same (team, challenge) pair; no other locking is
// involved.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/scoring"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Attempt is one flag submission, correct or not.
type Attempt struct {
	UserID      string
	TeamID      string
	ChallengeID string
	ContestID   string
	FlagHash    string
	IsCorrect   bool
	IPAddress   string
}

// RecordAttempt appends an immutable submission row.
func (l *Ledger) RecordAttempt(ctx context.Context, a Attempt) error {
	sub := models.Submission{
		ID:          uuid.NewString(),
		UserID:      a.UserID,
		TeamID:      a.TeamID,
		ChallengeID: a.ChallengeID,
		ContestID:   a.ContestID,
		FlagHash:    a.FlagHash,
		IsCorrect:   a.IsCorrect,
		IPAddress:   a.IPAddress,
	}
	return l.db.WithContext(ctx).Create(&sub).Error
}

// HasSolve reports whether the identity already holds a credited solve for
// the challenge in the given contest.
func (l *Ledger) HasSolve(ctx context.Context, teamID, challengeID, contestID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Solve{}).
		Where("team_id = ? AND challenge_id = ? AND contest_id = ?", teamID, challengeID, contestID).
		Count(&count).Error
	return count > 0, err
}

// CreditResult reports the outcome of a credit attempt. AlreadyExists is the
// expected result of losing a race, not an error.
type CreditResult struct {
	Created       bool
	PointsAwarded int
	SolveCount    int
	SolvedAt      time.Time
}

// CreditSolve awards at-most-once credit for (teamID, challengeID, contestID).
// The insert conflicts against the unique index when another submission won
// the race, in which case no points move and no counters change. On success
// the challenge's solve count is bumped and the awarded points are fixed from
// the count before this solve, so earlier solves keep their recorded value as
// the challenge continues to decay.
func (l *Ledger) CreditSolve(ctx context.Context, teamID, userID, challengeID, contestID string, now time.Time) (CreditResult, error) {
	var result CreditResult

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		solve := models.Solve{
			ID:          uuid.NewString(),
			TeamID:      teamID,
			UserID:      userID,
			ChallengeID: challengeID,
			ContestID:   contestID,
			SolvedAt:    now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&solve)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			result = CreditResult{Created: false}
			return nil
		}

		if err := tx.Model(&models.Challenge{}).Where("id = ?", challengeID).
			UpdateColumn("solve_count", gorm.Expr("solve_count + 1")).Error; err != nil {
			return err
		}

		var ch models.Challenge
		if err := tx.Where("id = ?", challengeID).First(&ch).Error; err != nil {
			return err
		}

		points := scoring.Points(scoring.Policy{
			Type:      string(ch.ScoringType),
			MaxPoints: ch.MaxPoints,
			MinPoints: ch.MinPoints,
			Decay:     ch.Decay,
		}, ch.SolveCount-1)

		if err := tx.Model(&models.Solve{}).Where("id = ?", solve.ID).
			UpdateColumn("points_awarded", points).Error; err != nil {
			return err
		}

		result = CreditResult{
			Created:       true,
			PointsAwarded: points,
			SolveCount:    ch.SolveCount,
			SolvedAt:      now,
		}
		return nil
	})

	return result, err
}

// SolvesSince returns credited solves in solved_at order, for projector
// rebuilds. A zero since returns the full history.
func (l *Ledger) SolvesSince(ctx context.Context, since time.Time) ([]models.Solve, error) {
	var solves []models.Solve
	q := l.db.WithContext(ctx).Order("solved_at asc")
	if !since.IsZero() {
		q = q.Where("solved_at >= ?", since)
	}
	if err := q.Find(&solves).Error; err != nil {
		return nil, err
	}
	return solves, nil
}

// SolvesForChallenge lists credited solves of one challenge, newest first.
func (l *Ledger) SolvesForChallenge(ctx context.Context, challengeID string) ([]models.Solve, error) {
	var solves []models.Solve
	err := l.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("solved_at desc").
		Find(&solves).Error
	if err != nil {
		return nil, err
	}
	return solves, nil
}

// AttemptsForIdentity lists a team's submission history, newest first, for
// the player-facing attempts view. An empty challengeID returns attempts on
// every challenge.
func (l *Ledger) AttemptsForIdentity(ctx context.Context, teamID, challengeID string) ([]models.Submission, error) {
	q := l.db.WithContext(ctx).Where("team_id = ?", teamID)
	if challengeID != "" {
		q = q.Where("challenge_id = ?", challengeID)
	}
	var subs []models.Submission
	if err := q.Order("created_at desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
