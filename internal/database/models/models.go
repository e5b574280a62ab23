package models

import (
	"time"

	"gorm.io/gorm"
)

type ScoringType string

const (
	ScoringStatic  ScoringType = "static"
	ScoringLinear  ScoringType = "linear"
	ScoringDynamic ScoringType = "dynamic"
)

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Username     string `gorm:"uniqueIndex" json:"username"`
	PasswordHash string `json:"-"`
	Nickname     string `json:"nickname"`
	Role         string `json:"role"`
	TeamID       string `gorm:"index" json:"team_id,omitempty"`
}

type Team struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name     string `gorm:"uniqueIndex" json:"name"`
	LeaderID string `json:"leader_id"`
}

type Challenge struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Title       string      `json:"title"`
	Category    string      `gorm:"index" json:"category"`
	Difficulty  string      `json:"difficulty"`
	ScoringType ScoringType `json:"scoring_type"`
	MaxPoints   int         `json:"max_points"`
	MinPoints   int         `json:"min_points"`
	Decay       int         `json:"decay"`
	FlagHash    string      `json:"-"`
	SolveCount  int         `json:"solve_count"`
	IsVisible   bool        `json:"is_visible"`
}

// Submission is the append-only attempt log. Rows are never updated after
// creation; the submitted flag is stored hashed for audit, not in plaintext.
type Submission struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time

	UserID      string `gorm:"index" json:"user_id"`
	TeamID      string `gorm:"index" json:"team_id,omitempty"`
	ChallengeID string `gorm:"index" json:"challenge_id"`
	ContestID   string `gorm:"index" json:"contest_id,omitempty"`
	FlagHash    string `json:"-"`
	IsCorrect   bool   `json:"is_correct"`
	IPAddress   string `json:"ip_address,omitempty"`
}

// Solve records a credited success. The unique index over
// (team_id, challenge_id, contest_id) is what makes concurrent duplicate
// credits impossible: the insert either lands or conflicts.
// PointsAwarded is fixed at credit time and never rewritten.
type Solve struct {
	ID string `gorm:"primaryKey" json:"id"`

	TeamID        string    `gorm:"uniqueIndex:idx_solve_team_challenge" json:"team_id"`
	ChallengeID   string    `gorm:"uniqueIndex:idx_solve_team_challenge" json:"challenge_id"`
	ContestID     string    `gorm:"uniqueIndex:idx_solve_team_challenge" json:"contest_id,omitempty"`
	UserID        string    `gorm:"index" json:"user_id"`
	PointsAwarded int       `json:"points_awarded"`
	SolvedAt      time.Time `gorm:"index" json:"solved_at"`
}

type Contest struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name       string     `json:"name"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	FreezeTime *time.Time `json:"freeze_time,omitempty"`
	IsActive   bool       `gorm:"index" json:"is_active"`
	TeamMode   bool       `json:"team_mode"`
}

type ContestRound struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ContestID   string    `gorm:"index" json:"contest_id"`
	Name        string    `json:"name"`
	Order       int       `json:"order"`
	VisibleFrom time.Time `json:"visible_from"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// RoundChallenge attaches a challenge to a round (many-to-many).
type RoundChallenge struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	RoundID     string `gorm:"uniqueIndex:idx_round_challenge" json:"round_id"`
	ChallengeID string `gorm:"uniqueIndex:idx_round_challenge" json:"challenge_id"`
}

type Notification struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Title   string `json:"title"`
	Message string `json:"message"`
	Pinned  bool   `json:"pinned"`
}
