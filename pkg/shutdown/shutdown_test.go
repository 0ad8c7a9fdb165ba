package shutdown

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunTask_Completes(t *testing.T) {
	sigs := make(chan os.Signal, 1)

	err := runTask(context.Background(), sigs, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	boom := errors.New("boom")
	err = runTask(context.Background(), sigs, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunTask_SignalCancelsContext(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	started := make(chan struct{})

	go func() {
		<-started
		sigs <- syscall.SIGTERM
	}()

	err := runTask(context.Background(), sigs, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()

		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
