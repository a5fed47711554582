package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"visitlog/internal/testsupport"
	"visitlog/internal/visits"
)

func newSeeder(t *testing.T, visitors int) (*Seeder, *gorm.DB) {
	t.Helper()
	store, db := testsupport.SetupTestStore(t)
	svc := visits.NewService(store, testsupport.GetLogger())
	return NewSeeder(svc, testsupport.GetLogger(), visitors, 42), db
}

func TestSeederRun(t *testing.T) {
	s, db := newSeeder(t, 20)
	s.DurationRatio = 1

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Visitors)
	assert.GreaterOrEqual(t, summary.PageViews, 20)
	assert.LessOrEqual(t, summary.PageViews, 20*s.MaxPageViews)
	assert.Equal(t, 20, summary.DurationUpdates)
	assert.Equal(t, int64(summary.PageViews), testsupport.CountVisits(t, db))

	var visitors int64
	require.NoError(t, db.Model(&visits.Visit{}).Distinct("visitor_id").Count(&visitors).Error)
	assert.Equal(t, int64(20), visitors)

	var withDuration int64
	require.NoError(t, db.Model(&visits.Visit{}).Where("duration > 0").Count(&withDuration).Error)
	assert.Equal(t, int64(20), withDuration)

	var durationRows int64
	require.NoError(t, db.Model(&visits.Visit{}).Where("event_type = ?", visits.EventTypeSessionDuration).Count(&durationRows).Error)
	assert.Zero(t, durationRows)

	var unknown int64
	require.NoError(t, db.Model(&visits.Visit{}).Where("ip_address = ''").Count(&unknown).Error)
	assert.Zero(t, unknown)
}

func TestSeederWithoutDurations(t *testing.T) {
	s, _ := newSeeder(t, 5)
	s.DurationRatio = 0

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.DurationUpdates)
}

func TestSeederStopsOnCancelledContext(t *testing.T) {
	s, db := newSeeder(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Visitors)
	assert.Zero(t, testsupport.CountVisits(t, db))
}
