package commands

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/erraggy/oasplit/logging"
)

// newLogger builds the CLI logger: a zap console logger on Stderr with
// colored levels on a terminal. Quiet logs errors only; verbose adds debug
// output.
func newLogger(verbose, quiet bool) *logging.ZapAdapter {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.TimeKey = zapcore.OmitKey
	ec.CallerKey = zapcore.OmitKey
	if useColor() {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	level := zapcore.WarnLevel
	switch {
	case quiet:
		level = zapcore.ErrorLevel
	case verbose:
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(Stderr)), level)
	return logging.NewZapAdapter(zap.New(core))
}
