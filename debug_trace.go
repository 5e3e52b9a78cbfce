package cx3

import (
	"fmt"
	"sync/atomic"

	"github.com/xyproto/env/v2"
	"go.uber.org/zap"
)

// debugEnabled controls whether tracing is enabled via the CX3_DEBUG env var.
var debugEnabled = env.Bool("CX3_DEBUG")

var logger atomic.Pointer[zap.Logger]

func init() {
	l := zap.NewNop()
	if debugEnabled {
		if dev, err := zap.NewDevelopment(); err == nil {
			l = dev
		}
	}
	logger.Store(l.Named("cx3"))
}

// SetLogger replaces the package logger. Passing nil restores the no-op
// logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l.Named("cx3"))
}

func tracer() *zap.Logger {
	return logger.Load()
}

// traceProgram records a generated program.
func traceProgram(seed uint64, rounds int, prog Program) {
	l := tracer()
	if ce := l.Check(zap.DebugLevel, "program generated"); ce != nil {
		fields := []zap.Field{
			zap.String("seed", hexU64(seed)),
			zap.Int("rounds", rounds),
			zap.Int("instructions", len(prog)),
			zap.Int("cost", prog.FramedCost()),
		}
		if debugEnabled {
			fields = append(fields, zap.String("disasm", prog.String()))
		}
		ce.Write(fields...)
	}
}

// traceRetry records an attempt abandoned for exceeding the budget.
func traceRetry(seed uint64, rounds, cost int) {
	if ce := tracer().Check(zap.DebugLevel, "program over budget, retrying with fewer rounds"); ce != nil {
		ce.Write(
			zap.String("seed", hexU64(seed)),
			zap.Int("rounds", rounds),
			zap.Int("cost", cost))
	}
}

// traceEvaluate records one black-box evaluation.
func traceEvaluate(value uint64, slot int, lo, hi uint32) {
	if ce := tracer().Check(zap.DebugLevel, "evaluate"); ce != nil {
		ce.Write(
			zap.String("value", hexU64(value)),
			zap.Int("slot", slot),
			zap.Uint32("lo", lo),
			zap.Uint32("hi", hi))
	}
}

func hexU64(v uint64) string {
	return fmt.Sprintf("%#016x", v)
}
