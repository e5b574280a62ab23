package contest

import (
	"context"

	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"gorm.io/gorm"
)

// DBStore reads contest configuration from the database.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) ActiveContest(ctx context.Context) (*models.Contest, error) {
	return database.GetActiveContest(s.db.WithContext(ctx))
}

func (s *DBStore) RoundsForChallenge(ctx context.Context, contestID, challengeID string) ([]models.ContestRound, error) {
	return database.GetRoundsForChallenge(s.db.WithContext(ctx), contestID, challengeID)
}

func (s *DBStore) RoundsForContest(ctx context.Context, contestID string) ([]models.ContestRound, error) {
	return database.GetRoundsByContestID(s.db.WithContext(ctx), contestID)
}
