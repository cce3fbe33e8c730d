package logger

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/harrison/qatriage/internal/models"
	"github.com/stretchr/testify/assert"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "debug")

		assert.NotNil(t, logger)
		assert.Equal(t, buf, logger.writer)
		assert.Equal(t, "debug", logger.logLevel)
		assert.False(t, logger.colorOutput, "buffers never get color")
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		assert.NotNil(t, logger)

		// Must not panic
		logger.Infof("dropped %d", 1)
		logger.LogRunSummary(models.TestRun{Total: 1, Passed: 1})
		logger.LogGroups([]models.GroupCount{{DisplayLabel: "Group 1", Count: 1}})
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		assert.Equal(t, "info", NewConsoleLogger(nil, "verbose").logLevel)
		assert.Equal(t, "info", NewConsoleLogger(nil, "").logLevel)
		assert.Equal(t, "warn", NewConsoleLogger(nil, " WARN ").logLevel)
	})
}

// TestLogLevelFiltering verifies that messages are filtered based on log level
func TestLogLevelFiltering(t *testing.T) {
	emit := map[string]func(*ConsoleLogger, string, ...interface{}){
		"trace": (*ConsoleLogger).Tracef,
		"debug": (*ConsoleLogger).Debugf,
		"info":  (*ConsoleLogger).Infof,
		"warn":  (*ConsoleLogger).Warnf,
	}

	for ci, configured := range ValidLevels {
		for mi, messageLevel := range ValidLevels {
			if emit[messageLevel] == nil {
				continue
			}
			name := fmt.Sprintf("%s logger, %s message", configured, messageLevel)
			t.Run(name, func(t *testing.T) {
				buf := &bytes.Buffer{}
				logger := NewConsoleLogger(buf, configured)
				emit[messageLevel](logger, "hello")

				if mi >= ci {
					assert.Contains(t, buf.String(), "["+strings.ToUpper(messageLevel)+"] hello")
				} else {
					assert.Empty(t, buf.String())
				}
			})
		}
	}
}

func TestFormattedHelpers(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")

	logger.Debugf("parsed %d tests", 12)
	logger.Infof("found %d failures", 3)
	logger.Warnf("clustering skipped: %s", "empty vocabulary")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] parsed 12 tests")
	assert.Contains(t, out, "[INFO] found 3 failures")
	assert.Contains(t, out, "[WARN] clustering skipped: empty vocabulary")
	assert.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[DEBUG\]`), out)
}

func TestLogRunSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogRunSummary(models.TestRun{Total: 10, Passed: 7, Failed: 3})
	assert.Contains(t, buf.String(), "Tests: 10 total, 7 passed, 3 failed")

	buf.Reset()
	quiet := NewConsoleLogger(buf, "warn")
	quiet.LogRunSummary(models.TestRun{Total: 1, Passed: 1})
	assert.Empty(t, buf.String())
}

func TestLogGroups(t *testing.T) {
	groups := []models.GroupCount{
		{Label: 0, DisplayLabel: "Group 1", Count: 3},
		{Label: 1, DisplayLabel: "Group 2", Count: 2},
	}

	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "debug").LogGroups(groups)
	assert.Contains(t, buf.String(), "Group 1: 3 failures")
	assert.Contains(t, buf.String(), "Group 2: 2 failures")

	buf.Reset()
	NewConsoleLogger(buf, "info").LogGroups(groups)
	assert.Empty(t, buf.String(), "group lines are debug output")
}

func TestConcurrentLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.Infof("message %d", i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, strings.Count(buf.String(), "\n"))
}

func TestIsValidLevel(t *testing.T) {
	for _, l := range ValidLevels {
		assert.True(t, IsValidLevel(l))
	}
	assert.True(t, IsValidLevel("ERROR"))
	assert.False(t, IsValidLevel("fatal"))
	assert.False(t, IsValidLevel(""))
}

func TestNoOpLogger(t *testing.T) {
	n := NewNoOpLogger()
	n.Debugf("x %d", 1)
	n.Infof("x")
	n.Warnf("x")
	n.LogRunSummary(models.TestRun{})
	n.LogGroups(nil)
}
