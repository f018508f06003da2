package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tripplanner/internal/models"
	"tripplanner/internal/version"
)

var testVersion = version.Info{Version: "1.2.3", GitCommit: "abc1234", InstanceID: "instance-1"}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  slog.Level
		expectErr bool
	}{
		{name: "debug", input: "debug", expected: slog.LevelDebug},
		{name: "info", input: "info", expected: slog.LevelInfo},
		{name: "warn", input: "warn", expected: slog.LevelWarn},
		{name: "error", input: "error", expected: slog.LevelError},
		{name: "uppercase", input: "DEBUG", expected: slog.LevelDebug},
		{name: "mixed case", input: "Info", expected: slog.LevelInfo},
		{name: "invalid", input: "invalid", expectErr: true},
		{name: "empty", input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error for input %q, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error for input %q: %v", tt.input, err)
				return
			}
			if level != tt.expected {
				t.Errorf("expected level %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestSetupConsoleOutputs(t *testing.T) {
	tests := []struct {
		name   string
		format string
		output string
	}{
		{"json stdout", "json", "stdout"},
		{"text stdout", "text", "stdout"},
		{"json stderr", "json", "stderr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.LoggingConfig{Level: "info", Format: tt.format, Output: tt.output}

			logger, closer, err := Setup(cfg, testVersion)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if closer != nil {
				t.Error("expected nil closer for console output")
			}
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}

func TestSetupFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "tripplanner.log")

	cfg := models.LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "file",
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     1,
	}

	logger, closer, err := Setup(cfg, testVersion)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closer == nil {
		t.Fatal("expected non-nil closer for file output")
	}
	defer closer.Close()

	logger.Info("trip saved", "trip_id", "t-1")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	for _, want := range []string{"trip saved", "t-1", `"version":"1.2.3"`, `"instance_id":"instance-1"`} {
		if !strings.Contains(content, want) {
			t.Errorf("log file does not contain %s, got: %s", want, content)
		}
	}
}

func TestSetupErrors(t *testing.T) {
	// A regular file where a directory is expected.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  models.LoggingConfig
	}{
		{"file without path", models.LoggingConfig{Level: "info", Output: "file"}},
		{"unwritable file path", models.LoggingConfig{Level: "info", Output: "file", FilePath: filepath.Join(blocker, "test.log")}},
		{"invalid level", models.LoggingConfig{Level: "verbose", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, closer, err := Setup(tt.cfg, testVersion)
			if err == nil {
				t.Fatal("expected error")
			}
			if logger != nil || closer != nil {
				t.Error("expected nil logger and closer on error")
			}
		})
	}
}

func TestOpenWriter(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		filePath  string
		expectErr bool
	}{
		{name: "stdout", output: "stdout"},
		{name: "stderr", output: "stderr"},
		{name: "default fallback", output: "anything"},
		{name: "file", output: "file", filePath: filepath.Join(t.TempDir(), "w.log")},
		{name: "file missing path", output: "file", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer, closer, err := openWriter(models.LoggingConfig{Output: tt.output, FilePath: tt.filePath})
			if tt.expectErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if writer == nil {
				t.Error("expected non-nil writer")
			}
			if closer != nil {
				closer.Close()
			}
		})
	}
}

func TestNewHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "text", slog.LevelWarn))

	logger.Info("chat turn handled")
	logger.Warn("rate limit exceeded")

	output := buf.String()
	if strings.Contains(output, "chat turn handled") {
		t.Error("info record should have been filtered by warn level")
	}
	if !strings.Contains(output, "rate limit exceeded") {
		t.Error("warn record should have been written")
	}
	if strings.Contains(output, "source=") {
		t.Error("source should only be added at debug level")
	}
}

func TestNewHandlerDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, "json", slog.LevelDebug)).Debug("extracting context")

	if !strings.Contains(buf.String(), `"source"`) {
		t.Errorf("expected source attribute at debug level, got: %s", buf.String())
	}
}

func TestNewHandlerRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "json", slog.LevelInfo))

	logger.Info("user created",
		"user_id", "u-1",
		"token", "tp_secret-value",
		"Authorization", "Bearer tp_secret-value",
		slog.Group("request", "password", "hunter2"))

	output := buf.String()
	if strings.Contains(output, "tp_secret-value") || strings.Contains(output, "hunter2") {
		t.Errorf("credential leaked into log record: %s", output)
	}
	if got := strings.Count(output, redacted); got != 3 {
		t.Errorf("expected 3 redacted values, got %d: %s", got, output)
	}
	if !strings.Contains(output, `"user_id":"u-1"`) {
		t.Errorf("non-sensitive attribute missing: %s", output)
	}
}

func TestNewHandlerFormat(t *testing.T) {
	var jsonBuf, textBuf bytes.Buffer
	slog.New(newHandler(&jsonBuf, "json", slog.LevelInfo)).Info("hello")
	slog.New(newHandler(&textBuf, "TEXT", slog.LevelInfo)).Info("hello")

	if !strings.HasPrefix(jsonBuf.String(), "{") {
		t.Errorf("json handler output = %q", jsonBuf.String())
	}
	if !strings.Contains(textBuf.String(), "msg=hello") {
		t.Errorf("text handler output = %q", textBuf.String())
	}
}
