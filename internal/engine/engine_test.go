package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/ratelimit"
	"github.com/openctf/arena/internal/scoreboard"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixedStore struct {
	active *models.Contest
	rounds map[string][]models.ContestRound
}

func (s *fixedStore) ActiveContest(context.Context) (*models.Contest, error) {
	return s.active, nil
}

func (s *fixedStore) RoundsForChallenge(_ context.Context, _, challengeID string) ([]models.ContestRound, error) {
	return s.rounds[challengeID], nil
}

func (s *fixedStore) RoundsForContest(context.Context, string) ([]models.ContestRound, error) {
	var all []models.ContestRound
	for _, rs := range s.rounds {
		all = append(all, rs...)
	}
	return all, nil
}

type fixture struct {
	engine    *Engine
	db        *gorm.DB
	projector *scoreboard.Projector
	store     *fixedStore
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	now := time.Now()
	store := &fixedStore{
		active: &models.Contest{
			ID:        "contest",
			StartTime: now.Add(-time.Hour),
			EndTime:   now.Add(24 * time.Hour),
			IsActive:  true,
		},
		rounds: map[string][]models.ContestRound{},
	}

	ch := models.Challenge{
		ID:          "chal",
		Title:       "heap feng shui",
		ScoringType: models.ScoringDynamic,
		MaxPoints:   500,
		MinPoints:   100,
		Decay:       10,
		FlagHash:    HashFlag("flag{right}"),
		IsVisible:   true,
	}
	if err := db.Create(&ch).Error; err != nil {
		t.Fatal(err)
	}

	projector := scoreboard.NewProjector()
	eng := New(
		db,
		ratelimit.NewMemoryLimiter(maxAttempts, time.Minute),
		contest.NewClock(store),
		ledger.New(db),
		projector,
		pubsub.NewBroker(),
		nil,
		5*time.Second,
	)

	return &fixture{engine: eng, db: db, projector: projector, store: store}
}

func TestSubmitEndToEndDynamicScoring(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	first, err := f.engine.Submit(ctx, Identity{UserID: "u1", TeamID: "alpha"}, "chal", "flag{right}", "1.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if first.Outcome != OutcomeCredited {
		t.Fatalf("first solver should be credited, got %s", first.Outcome)
	}
	if first.Points != 500 || first.SolveCount != 1 {
		t.Fatalf("first solver: points=%d solve_count=%d", first.Points, first.SolveCount)
	}

	second, err := f.engine.Submit(ctx, Identity{UserID: "u2", TeamID: "bravo"}, "chal", "flag{right}", "2.2.2.2")
	if err != nil {
		t.Fatal(err)
	}
	if second.Outcome != OutcomeCredited {
		t.Fatalf("second team should be credited, got %s", second.Outcome)
	}
	if second.Points >= 500 || second.Points < 480 {
		t.Fatalf("second solver should land in the decay band, got %d", second.Points)
	}
	if second.SolveCount != 2 {
		t.Fatalf("solve count should be 2, got %d", second.SolveCount)
	}

	// First solve's awarded points stay frozen at 500
	var solve models.Solve
	f.db.First(&solve, "team_id = ?", "alpha")
	if solve.PointsAwarded != 500 {
		t.Errorf("first solve should keep 500 points, has %d", solve.PointsAwarded)
	}
}

func TestSubmitIncorrectFlag(t *testing.T) {
	f := newFixture(t, 100)

	res, err := f.engine.Submit(context.Background(), Identity{UserID: "u1", TeamID: "alpha"}, "chal", "flag{wrong}", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeIncorrect {
		t.Fatalf("got %s", res.Outcome)
	}

	var sub models.Submission
	if err := f.db.First(&sub, "team_id = ?", "alpha").Error; err != nil {
		t.Fatal("incorrect attempts must still be recorded")
	}
	if sub.IsCorrect {
		t.Error("attempt should be recorded as incorrect")
	}
	if sub.FlagHash == "flag{wrong}" {
		t.Error("plaintext guess must not be persisted")
	}
}

func TestSubmitAlreadySolvedIsIdempotent(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	id := Identity{UserID: "u1", TeamID: "alpha"}

	if res, _ := f.engine.Submit(ctx, id, "chal", "flag{right}", ""); res.Outcome != OutcomeCredited {
		t.Fatalf("setup credit failed: %s", res.Outcome)
	}

	for i := 0; i < 3; i++ {
		res, err := f.engine.Submit(ctx, id, "chal", "flag{right}", "")
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != OutcomeAlreadySolved {
			t.Fatalf("resubmission %d: got %s", i, res.Outcome)
		}
	}

	var ch models.Challenge
	f.db.First(&ch, "id = ?", "chal")
	if ch.SolveCount != 1 {
		t.Fatalf("solve count crept to %d on resubmissions", ch.SolveCount)
	}
}

func TestSubmitConcurrentStormCreditsOnce(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()

	const callers = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := map[Outcome]int{}

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.engine.Submit(ctx, Identity{UserID: "u1", TeamID: "alpha"}, "chal", "flag{right}", "")
			if err != nil {
				t.Errorf("Submit: %v", err)
				return
			}
			mu.Lock()
			outcomes[res.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if outcomes[OutcomeCredited] != 1 {
		t.Fatalf("exactly one caller should be credited, got %d (%v)", outcomes[OutcomeCredited], outcomes)
	}
	if outcomes[OutcomeAlreadySolved] != callers-1 {
		t.Fatalf("losers should see already_solved, got %v", outcomes)
	}

	var ch models.Challenge
	f.db.First(&ch, "id = ?", "chal")
	if ch.SolveCount != 1 {
		t.Fatalf("solve count should be exactly 1, got %d", ch.SolveCount)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	id := Identity{UserID: "u1", TeamID: "alpha"}

	f.engine.Submit(ctx, id, "chal", "flag{nope1}", "")
	f.engine.Submit(ctx, id, "chal", "flag{nope2}", "")

	res, err := f.engine.Submit(ctx, id, "chal", "flag{right}", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeRateLimited {
		t.Fatalf("third attempt should be rate limited, got %s", res.Outcome)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("retry_after out of range: %v", res.RetryAfter)
	}

	// The gated attempt never reached flag comparison or the ledger
	var count int64
	f.db.Model(&models.Submission{}).Where("team_id = ?", "alpha").Count(&count)
	if count != 2 {
		t.Fatalf("rate-limited attempt must not be ledgered, found %d rows", count)
	}
}

func TestSubmitTimingGates(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	id := Identity{UserID: "u1", TeamID: "alpha"}
	now := time.Now()

	// Round becomes visible an hour from now
	f.store.rounds["chal"] = []models.ContestRound{{
		ContestID:   "contest",
		VisibleFrom: now.Add(time.Hour),
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(10 * time.Hour),
	}}

	res, err := f.engine.Submit(ctx, id, "chal", "flag{right}", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeTimingInvalid {
		t.Fatalf("hidden round should reject, got %s", res.Outcome)
	}

	// Open the round; the same submission now goes through
	f.store.rounds["chal"][0].VisibleFrom = now.Add(-time.Minute)
	res, err = f.engine.Submit(ctx, id, "chal", "flag{right}", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeCredited {
		t.Fatalf("open round should accept, got %s", res.Outcome)
	}
}

func TestSubmitTeamModeRequiresTeam(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	f.store.active.TeamMode = true

	res, err := f.engine.Submit(ctx, Identity{UserID: "lone"}, "chal", "flag{right}", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeTeamRequired {
		t.Fatalf("teamless caller in a team contest should be rejected, got %s", res.Outcome)
	}

	// Nothing was ledgered for the rejected caller
	var count int64
	f.db.Model(&models.Submission{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected submission must not be recorded, found %d rows", count)
	}

	res, err = f.engine.Submit(ctx, Identity{UserID: "lone", TeamID: "alpha"}, "chal", "flag{right}", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeCredited {
		t.Fatalf("team member should be credited, got %s", res.Outcome)
	}
}

func TestSubmitUnknownChallenge(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.engine.Submit(context.Background(), Identity{UserID: "u1"}, "missing", "flag{x}", "")
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}

	var count int64
	f.db.Model(&models.Submission{}).Count(&count)
	if count != 0 {
		t.Fatal("unknown challenge must leave no ledger entry")
	}
}

func TestSoloPlayerCreditedAsThemselves(t *testing.T) {
	f := newFixture(t, 100)

	res, err := f.engine.Submit(context.Background(), Identity{UserID: "lone"}, "chal", "flag{right}", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeCredited {
		t.Fatalf("got %s", res.Outcome)
	}

	var solve models.Solve
	if err := f.db.First(&solve, "team_id = ?", "lone").Error; err != nil {
		t.Fatal("solo solve should be keyed by the user id")
	}
}

func TestProjectionMatchesLedgerTotals(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	// Second challenge so alpha accumulates across two solves
	ch2 := models.Challenge{
		ID:          "chal2",
		ScoringType: models.ScoringStatic,
		MaxPoints:   300,
		MinPoints:   300,
		FlagHash:    HashFlag("flag{two}"),
		IsVisible:   true,
	}
	if err := f.db.Create(&ch2).Error; err != nil {
		t.Fatal(err)
	}

	id := Identity{UserID: "u1", TeamID: "alpha"}
	f.engine.Submit(ctx, id, "chal", "flag{right}", "")
	f.engine.Submit(ctx, id, "chal2", "flag{two}", "")

	var solves []models.Solve
	f.db.Find(&solves, "team_id = ?", "alpha")
	sum := 0
	for _, s := range solves {
		sum += s.PointsAwarded
	}

	if got := f.projector.TotalFor("contest", "alpha"); got != sum {
		t.Fatalf("projector total %d drifts from ledger sum %d", got, sum)
	}
}
