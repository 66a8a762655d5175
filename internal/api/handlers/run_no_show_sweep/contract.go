package run_no_show_sweep

import (
	"context"

	"github.com/m04kA/SMC-CancellationService/internal/worker/noshow"
)

type Sweeper interface {
	RunOnce(ctx context.Context) noshow.SweepResult
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
