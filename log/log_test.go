package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogNotInitialized(t *testing.T) {
	Info("Test log.Info", " value is ", 10)
	Infof("Test log.Infof %d", 10)
	Debug("Test log.Debug", " value is ", 10)
	Debugf("Test log.Debugf %d", 10)
	Error("Test log.Error", " value is ", 10)
	Errorf("Test log.Errorf %d", 10)
	Warn("Test log.Warn", " value is ", 10)
	Warnf("Test log.Warnf %d", 10)
}

func TestLog(t *testing.T) {
	cfg := Config{
		Environment: EnvironmentDevelopment,
		Level:       "debug",
		Outputs:     []string{"stderr"}, // []string{"stdout", "test.log"}
	}

	Init(cfg)

	Info("Test log.Info", " value is ", 10)
	Infof("Test log.Infof %d", 10)
	Debug("Test log.Debug", " value is ", 10)
	Debugf("Test log.Debugf %d", 10)
	Error("Test log.Error", " value is ", 10)
	Errorf("Test log.Errorf %d", 10)
	Warn("Test log.Warn", " value is ", 10)
	Warnf("Test log.Warnf %d", 10)

	logger := WithFields("module", "test")
	logger.Infow("with fields", "order", 1)
	require.NotNil(t, logger.GetSugaredLogger())
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, _, err := NewLogger(Config{Environment: EnvironmentProduction, Level: "verbose"})
	require.Error(t, err)
}

func TestStackTraceWithoutFrames(t *testing.T) {
	require.Empty(t, stackTrace(errors.New("plain")))
	args := appendStackTraceMaybeArgs([]interface{}{errors.New("plain")})
	require.Len(t, args, 1)
}
