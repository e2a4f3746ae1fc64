package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/config"
	"github.com/yourusername/acca-engine/internal/datasource"
	"github.com/yourusername/acca-engine/internal/storage"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "acca.json"), logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	client := datasource.NewClient(config.OddsAPIConfig{
		BaseURL:            "https://api.example.com/v3",
		DefaultSport:       "soccer_epl",
		Region:             "uk",
		RateLimitPerSecond: 10,
		TimeoutSeconds:     5,
		CacheTTLSeconds:    60,
	}, logger)
	t.Cleanup(func() { client.Close() })

	return NewScheduler(client, store, logger, time.Minute)
}

func TestScheduleOddsRefreshRejectsBadExpression(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.ScheduleOddsRefresh("not a cron expression", "soccer_epl"); err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
}

func TestScheduleOddsRefreshAcceptsStandardExpression(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.ScheduleOddsRefresh("0 */6 * * *", "soccer_epl"); err != nil {
		t.Fatalf("ScheduleOddsRefresh: %v", err)
	}
}

func TestScheduleWhileRunning(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.ScheduleOddsRefresh("@hourly", "soccer_epl"); err != nil {
		t.Fatalf("ScheduleOddsRefresh: %v", err)
	}

	s.Start()
	defer s.Stop()

	if err := s.ScheduleOddsRefresh("@hourly", "basketball_nba"); err == nil {
		t.Fatal("expected error when scheduling on a running scheduler")
	}
}

func TestStartStopAreIdempotent(t *testing.T) {
	s := newTestScheduler(t)

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestRefreshOddsStoresSnapshot(t *testing.T) {
	s := newTestScheduler(t)

	// Mock-mode client: the refresh serves canned data without network access
	s.refreshOdds("soccer_epl")

	if n := len(s.store.GetSelections()); n == 0 {
		t.Fatal("expected refreshed selections in the store")
	}
}
