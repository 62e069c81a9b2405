package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		DialTimeout:    50 * time.Millisecond,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validOptions().Validate())

	bad := validOptions()
	bad.Addr = ""
	bad.MaxWait = 0
	bad.WarnThreshold = -1
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "Addr")
	assert.ErrorContains(t, err, "MaxWait")
	assert.ErrorContains(t, err, "WarnThreshold")
}

func TestConnectGivesUp(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	start := time.Now()
	client, err := Connect(context.Background(), validOptions(), logger.FromZap(zap.New(core)))

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NotEmpty(t, logs.FilterMessage("redis unavailable - giving up").All())
	assert.NotEmpty(t, logs.FilterMessage("redis connection failed, retrying").All())
}

func TestConnectHonorsContext(t *testing.T) {
	opts := validOptions()
	opts.ConnectTimeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := Connect(ctx, opts, logger.NewNop())
	assert.Error(t, err)
}

func TestConnectRejectsInvalidOptions(t *testing.T) {
	_, err := New(ConnectOptions{}, logger.NewNop())
	assert.ErrorContains(t, err, "invalid redis options")
}
