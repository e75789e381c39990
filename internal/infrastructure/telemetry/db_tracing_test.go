package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID      uint `gorm:"primaryKey"`
	Name    string
	Version int
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTracedDB(t)

	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	assert.Nil(t, db.Callback().Query().Get("otel_slow_query:query"))
}

func TestDBTracingPlugin_Enabled(t *testing.T) {
	db := setupTracedDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true

	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	assert.NotNil(t, db.Callback().Query().Get("otel_slow_query:query"))
	assert.NotNil(t, db.Callback().Update().Get("otel_timing:before_update"))

	// registering twice on the same db must fail rather than double-count
	assert.Error(t, plugin.RegisterOtelGorm(db))
}

func TestDBTracingPlugin_AfterQueryAnnotatesSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := setupTracedDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = time.Nanosecond
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "update")
	stmt := db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
	stmt.Statement.Table = "orders"
	stmt.Statement.RowsAffected = 0
	stmt.Statement.Context = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))
	plugin.afterQuery(stmt)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "orders", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(0), attrs["db.rows_affected"].AsInt64())
	assert.True(t, attrs["db.slow_query"].AsBool())
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "slow_query_warning", ended[0].Events()[0].Name)
	assert.NotEqual(t, codes.Error, ended[0].Status().Code)
}

func TestDBTracingPlugin_AfterQueryMarksErrors(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := setupTracedDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Hour}, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	stmt := db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
	_ = stmt.AddError(gorm.ErrInvalidData)
	plugin.afterQuery(stmt)
	span.End()

	assert.Equal(t, codes.Error, sr.Ended()[0].Status().Code)
}

func TestDBTracingPlugin_NotFoundIsNotAnError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := setupTracedDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Hour}, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	stmt := db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
	_ = stmt.AddError(gorm.ErrRecordNotFound)
	plugin.afterQuery(stmt)
	span.End()

	assert.NotEqual(t, codes.Error, sr.Ended()[0].Status().Code)
}
