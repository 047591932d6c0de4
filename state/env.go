// Package state carries per-run program state through context.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"demc/config"
)

// LocalEnv holds everything a command action needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// convert command flags
	NoDirs    bool
	Overwrite bool
	Archive   bool

	start         time.Time
	restoreStdLog func()
}

type ctxKey struct{}

// ContextWithEnv attaches a fresh LocalEnv to the context.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &LocalEnv{start: time.Now()})
}

// EnvFromContext returns the LocalEnv stored by ContextWithEnv. Running a
// command without one is a programming error.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(ctxKey{}).(*LocalEnv)
	if !ok {
		panic("localenv not found in context")
	}
	return env
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog routes the standard library global logger into our logger
// until RestoreStdLog is called.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
