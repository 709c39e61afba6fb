package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/config"
)

// Runs against a real database only when SECTORJAM_TEST_DSN is set.
func TestScoreRepoRoundTrip(t *testing.T) {
	dsn := os.Getenv("SECTORJAM_TEST_DSN")
	if dsn == "" {
		t.Skip("SECTORJAM_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(ctx, db.Pool))

	repo := NewScoreRepo(db)
	id := uuid.New()
	require.NoError(t, repo.Record(ctx, ScoreRow{
		SessionID: id,
		Players:   []string{"Player0", "Player1"},
		Score:     1 << 30,
		Sectors:   2,
		Outcome:   "complete",
	}, []SectorResult{{Sector: "Sector0", Outcome: "complete", Score: 40, Ticks: 300}}))

	top, err := repo.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, id, top[0].SessionID)
	assert.Equal(t, []string{"Player0", "Player1"}, top[0].Players)
}
