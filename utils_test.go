package retawny_test

import (
	"testing"

	"github.com/mercurioimaging/Retawny"
)

func TestProgressIgnoreDoesNothing(t *testing.T) {
	// Just confirms it is callable without effect; nothing to assert.
	retawny.ProgressIgnore(42)
}

func TestLoggerProgressFuncStepZeroNeverLogs(t *testing.T) {
	fn := retawny.LoggerProgressFunc("test", 10, 0)
	fn(5) // would panic/divide weirdly if step==0 weren't special-cased
}

func TestLoggerProgressFuncMaxZeroNoOp(t *testing.T) {
	fn := retawny.LoggerProgressFunc("test", 0, 1)
	fn(1) // max == 0 must short-circuit rather than divide by zero
}
