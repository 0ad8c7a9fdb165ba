package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcodd23/go-bulkcopy/pkg/logx"
)

// RunTaskWithContextCancellation executes a task under a context that is cancelled when the process
// receives SIGINT or SIGTERM.
//
// The task is expected to honor ctx: on a signal the context is cancelled and the function waits for
// the task to return, so connections opened by the task are released before the process exits.
//
// Parameters:
//   - rootCtx: The parent context.
//   - task: The function to execute. It takes the cancellable context.
//
// Returns:
//   - The error returned by the task.
//
// Usage:
//
//	err := shutdown.RunTaskWithContextCancellation(context.Background(), func(ctx context.Context) error {
//	    _, err := dbx.BulkInsert(ctx, session, mapping, entities)
//	    return err
//	})
func RunTaskWithContextCancellation(rootCtx context.Context, task func(ctx context.Context) error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	return runTask(rootCtx, sigs, task)
}

func runTask(rootCtx context.Context, sigs <-chan os.Signal, task func(ctx context.Context) error) error {
	cancelCtx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	taskCompleted := make(chan error, 1)

	go func() {
		taskCompleted <- task(cancelCtx)
	}()

	select {
	case sig := <-sigs:
		logx.GetLogger().LogWarning(rootCtx, fmt.Sprintf("Interrupt signal captured: %s, cancelling task", sig.String()))
		cancel()

		err := <-taskCompleted
		if err != nil {
			logx.GetLogger().LogError(rootCtx, "Task interrupted", err)
		}

		return err
	case err := <-taskCompleted:
		if err != nil {
			logx.GetLogger().LogError(cancelCtx, "Task error", err)
		}

		return err
	}
}
