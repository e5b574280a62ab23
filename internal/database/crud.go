package database

import (
	"errors"

	"github.com/openctf/arena/internal/database/models"
	"gorm.io/gorm"
)

// User CRUD
func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetAllUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func UpdateUser(db *gorm.DB, user *models.User) error {
	return db.Save(user).Error
}

// Team CRUD
func CreateTeam(db *gorm.DB, team *models.Team) error {
	return db.Create(team).Error
}

func GetTeamByID(db *gorm.DB, id string) (*models.Team, error) {
	var team models.Team
	if err := db.Where("id = ?", id).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func JoinTeam(db *gorm.DB, userID, teamID string) error {
	return db.Model(&models.User{}).Where("id = ?", userID).Update("team_id", teamID).Error
}

func GetTeamMembers(db *gorm.DB, teamID string) ([]models.User, error) {
	var users []models.User
	if err := db.Where("team_id = ?", teamID).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Challenge CRUD
func CreateChallenge(db *gorm.DB, ch *models.Challenge) error {
	return db.Create(ch).Error
}

func GetChallengeByID(db *gorm.DB, id string) (*models.Challenge, error) {
	var ch models.Challenge
	if err := db.Where("id = ?", id).First(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func GetAllChallenges(db *gorm.DB, visibleOnly bool) ([]models.Challenge, error) {
	var chs []models.Challenge
	q := db.Order("category asc, title asc")
	if visibleOnly {
		q = q.Where("is_visible = ?", true)
	}
	if err := q.Find(&chs).Error; err != nil {
		return nil, err
	}
	return chs, nil
}

func UpdateChallenge(db *gorm.DB, ch *models.Challenge) error {
	return db.Save(ch).Error
}

func DeleteChallenge(db *gorm.DB, id string) error {
	return db.Delete(&models.Challenge{}, "id = ?", id).Error
}

// Contest CRUD
func CreateContest(db *gorm.DB, contest *models.Contest) error {
	return db.Create(contest).Error
}

func GetContestByID(db *gorm.DB, id string) (*models.Contest, error) {
	var contest models.Contest
	if err := db.Where("id = ?", id).First(&contest).Error; err != nil {
		return nil, err
	}
	return &contest, nil
}

// GetActiveContest returns the single active contest, or (nil, nil) when no
// contest is active.
func GetActiveContest(db *gorm.DB) (*models.Contest, error) {
	var contest models.Contest
	err := db.Where("is_active = ?", true).First(&contest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contest, nil
}

func GetAllContests(db *gorm.DB) ([]models.Contest, error) {
	var contests []models.Contest
	if err := db.Order("start_time desc").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

func UpdateContest(db *gorm.DB, contest *models.Contest) error {
	return db.Save(contest).Error
}

// SetActiveContest marks one contest active and deactivates the rest, in a
// single transaction so at most one contest is ever active.
func SetActiveContest(db *gorm.DB, contestID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Contest{}).Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Contest{}).Where("id = ?", contestID).
			Update("is_active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Round CRUD
func CreateRound(db *gorm.DB, round *models.ContestRound) error {
	return db.Create(round).Error
}

func GetRoundByID(db *gorm.DB, id string) (*models.ContestRound, error) {
	var round models.ContestRound
	if err := db.Where("id = ?", id).First(&round).Error; err != nil {
		return nil, err
	}
	return &round, nil
}

func GetRoundsByContestID(db *gorm.DB, contestID string) ([]models.ContestRound, error) {
	var rounds []models.ContestRound
	if err := db.Where("contest_id = ?", contestID).Order(`"order" asc`).Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

// GetRoundsForChallenge returns the rounds of a contest that contain the
// given challenge.
func GetRoundsForChallenge(db *gorm.DB, contestID, challengeID string) ([]models.ContestRound, error) {
	var rounds []models.ContestRound
	err := db.Model(&models.ContestRound{}).
		Joins("join round_challenges on round_challenges.round_id = contest_rounds.id").
		Where("contest_rounds.contest_id = ? AND round_challenges.challenge_id = ?", contestID, challengeID).
		Order(`contest_rounds."order" asc`).
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func UpdateRound(db *gorm.DB, round *models.ContestRound) error {
	return db.Save(round).Error
}

func DeleteRound(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RoundChallenge{}, "round_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ContestRound{}, "id = ?", id).Error
	})
}

func AttachChallengeToRound(db *gorm.DB, roundID, challengeID string) error {
	return db.Create(&models.RoundChallenge{RoundID: roundID, ChallengeID: challengeID}).Error
}

func DetachChallengeFromRound(db *gorm.DB, roundID, challengeID string) error {
	return db.Delete(&models.RoundChallenge{}, "round_id = ? AND challenge_id = ?", roundID, challengeID).Error
}

// GetChallengeIDsForContest returns the ids of all challenges attached to any
// round of the contest.
func GetChallengeIDsForContest(db *gorm.DB, contestID string) ([]string, error) {
	var ids []string
	err := db.Model(&models.RoundChallenge{}).
		Distinct("round_challenges.challenge_id").
		Joins("join contest_rounds on contest_rounds.id = round_challenges.round_id").
		Where("contest_rounds.contest_id = ?", contestID).
		Pluck("round_challenges.challenge_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Notification CRUD
func CreateNotification(db *gorm.DB, n *models.Notification) error {
	return db.Create(n).Error
}

func GetAllNotifications(db *gorm.DB) ([]models.Notification, error) {
	var ns []models.Notification
	if err := db.Order("pinned desc, created_at desc").Find(&ns).Error; err != nil {
		return nil, err
	}
	return ns, nil
}

func GetNotificationByID(db *gorm.DB, id string) (*models.Notification, error) {
	var n models.Notification
	if err := db.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func UpdateNotification(db *gorm.DB, n *models.Notification) error {
	return db.Save(n).Error
}

func DeleteNotification(db *gorm.DB, id string) error {
	return db.Delete(&models.Notification{}, "id = ?", id).Error
}
