package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func query() (string, int64) { return "SELECT 1", 1 }

func TestGormLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newGormLogger(zap.New(core), logger.Warn)
	ctx := context.Background()

	// быстрый запрос на уровне Warn не пишется
	l.Trace(ctx, time.Now(), query, nil)
	assert.Zero(t, logs.Len())

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	l.Trace(ctx, time.Now(), query, errors.New("boom"))
	// not found обрабатывается хранилищем
	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "slow query", entries[0].Message)
		assert.Equal(t, "query failed", entries[1].Message)
		assert.Equal(t, "gorm", entries[1].LoggerName)
		assert.Equal(t, "SELECT 1", entries[1].ContextMap()["sql"])
	}

	verbose := l.LogMode(logger.Info)
	verbose.Trace(ctx, time.Now(), query, nil)
	verbose.Info(ctx, "migrated %d tables", 6)
	assert.Equal(t, 4, logs.Len())
	assert.Equal(t, "migrated 6 tables", logs.AllUntimed()[3].Message)

	l.LogMode(logger.Silent).Error(ctx, "hidden")
	assert.Equal(t, 4, logs.Len())
}
