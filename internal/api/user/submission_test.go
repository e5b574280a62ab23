package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openctf/arena/internal/config"
	"github.com/openctf/arena/internal/contest"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/engine"
	"github.com/openctf/arena/internal/ledger"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/ratelimit"
	"github.com/openctf/arena/internal/scoreboard"
	"github.com/openctf/arena/internal/util"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSubmitRouter wires a real engine behind the submit handler, with the
// auth middleware replaced by a stub that injects the caller.
func newSubmitRouter(t *testing.T, maxAttempts int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	seed := []interface{}{
		&models.User{ID: "u1", Username: "alice"},
		&models.Contest{
			ID:        "contest",
			StartTime: now.Add(-time.Hour),
			EndTime:   now.Add(24 * time.Hour),
			IsActive:  true,
		},
		&models.Challenge{
			ID:          "chal",
			Title:       "warmup",
			ScoringType: models.ScoringStatic,
			MaxPoints:   100,
			MinPoints:   100,
			FlagHash:    engine.HashFlag("flag{right}"),
			IsVisible:   true,
		},
	}
	for _, row := range seed {
		if err := db.Create(row).Error; err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{}
	clock := contest.NewClock(contest.NewDBStore(db))
	ldg := ledger.New(db)
	projector := scoreboard.NewProjector()
	broker := pubsub.NewBroker()
	eng := engine.New(db, ratelimit.NewMemoryLimiter(maxAttempts, time.Minute),
		clock, ldg, projector, broker, nil, 5*time.Second)
	h := NewHandler(cfg, db, eng, clock, ldg, projector, broker, nil)

	r := gin.New()
	r.POST("/api/v1/challenges/:id/submit", func(c *gin.Context) {
		c.Set("userID", "u1")
		h.submitFlag(c)
	})
	return r
}

func postFlag(t *testing.T, r *gin.Engine, flag string) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/chal/submit",
		strings.NewReader(`{"flag":"`+flag+`"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp util.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestSubmitFlagWireContract(t *testing.T) {
	r := newSubmitRouter(t, 100)

	w, resp := postFlag(t, r, "flag{right}")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["correct"] != true || data["already_solved"] != false {
		t.Fatalf("first solve: %v", data)
	}
	if data["points"].(float64) != 100 || data["solve_count"].(float64) != 1 {
		t.Fatalf("first solve points/count: %v", data)
	}

	// Resubmitting a solved challenge stays correct, flagged as a repeat
	w, resp = postFlag(t, r, "flag{right}")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	data = resp.Data.(map[string]interface{})
	if data["correct"] != true {
		t.Fatalf("resubmission must remain correct: %v", data)
	}
	if data["already_solved"] != true {
		t.Fatalf("resubmission must be marked already_solved: %v", data)
	}
	if data["solve_count"].(float64) != 1 {
		t.Fatalf("resubmission must not bump solve count: %v", data)
	}
}

func TestSubmitFlagIncorrectWire(t *testing.T) {
	r := newSubmitRouter(t, 100)

	w, resp := postFlag(t, r, "flag{wrong}")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["correct"] != false || data["already_solved"] != false {
		t.Fatalf("wrong flag: %v", data)
	}
}

func TestSubmitFlagRateLimitedWire(t *testing.T) {
	r := newSubmitRouter(t, 1)

	postFlag(t, r, "flag{wrong}")
	w, resp := postFlag(t, r, "flag{right}")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status: %d", w.Code)
	}
	data := resp.Data.(map[string]interface{})
	retry, ok := data["retry_after"].(float64)
	if !ok || retry <= 0 || retry > 60 {
		t.Fatalf("retry_after out of range: %v", data)
	}
}
