package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCaptureHealth(t *testing.T) {
	started := time.Now().Add(-90 * time.Second)

	up := CaptureHealth(context.Background(), pingFunc(func(context.Context) error { return nil }), t.TempDir(), started)
	assert.True(t, up.Healthy())
	assert.GreaterOrEqual(t, up.UptimeSeconds, int64(90))
	assert.Positive(t, up.DiskTotalBytes)

	down := CaptureHealth(context.Background(), pingFunc(func(context.Context) error { return errors.New("refused") }), t.TempDir(), started)
	assert.False(t, down.Healthy())
	assert.Equal(t, "unreachable", down.Database)
}
