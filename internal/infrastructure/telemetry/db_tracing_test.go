package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type tracedRow struct {
	ID   int
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	recorder := installRecorder(t)
	db := openTestDB(t)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zaptest.NewLogger(t)))
	require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "a"}).Error)

	assert.Empty(t, recorder.Ended())
}

func TestRegisterDBTracing_EmitsSpans(t *testing.T) {
	recorder := installRecorder(t)
	db := openTestDB(t)

	cfg := DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Nanosecond}
	require.NoError(t, RegisterDBTracing(db, cfg, zaptest.NewLogger(t)))

	ctx, parent := StartSpan(context.Background(), "test", "db")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	assert.GreaterOrEqual(t, len(recorder.Ended()), 3)
}
