package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"chapter": "PyLadies Austin"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false, // won't log (below INFO)
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "error occurred",
			err:     errors.New("test error"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > before
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelDebug, &buf).Named("pyladies.meetup.api")

	log.Error("fetch failed", Fields{"url": "https://api.example.com/groups"}, errors.New("boom"))

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Logger != "pyladies.meetup.api" {
		t.Errorf("Logger = %q, want pyladies.meetup.api", entry.Logger)
	}
	if entry.Error != "boom" {
		t.Errorf("Error = %q, want boom", entry.Error)
	}
	if entry.Fields["url"] != "https://api.example.com/groups" {
		t.Errorf("Fields[url] = %v", entry.Fields["url"])
	}
}

func TestNamed_SharesLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelWarn, &buf)
	child := root.Named("pyladies.meetup.groups")

	child.Info("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("child logged below parent level: %s", buf.String())
	}

	child.Warn("shown", nil)
	if !strings.Contains(buf.String(), `"logger":"pyladies.meetup.groups"`) {
		t.Errorf("expected child name in output, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"warn", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("meetup.requests")
	m.IncrCounter("meetup.requests")
	m.IncrCounter("meetup.requests")

	snapshot := m.GetSnapshot()
	counters := snapshot["counters"].(map[string]int64)

	if counters["meetup.requests"] != 3 {
		t.Errorf("Counter = %v, want 3", counters["meetup.requests"])
	}
	if m.Counter("meetup.requests") != 3 {
		t.Errorf("Counter() = %v, want 3", m.Counter("meetup.requests"))
	}
	if m.Counter("missing") != 0 {
		t.Errorf("Counter(missing) = %v, want 0", m.Counter("missing"))
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("chapters.resolvable", 10)
	m.SetGauge("chapters.resolvable", 12)

	snapshot := m.GetSnapshot()
	gauges := snapshot["gauges"].(map[string]float64)

	if gauges["chapters.resolvable"] != 12 {
		t.Errorf("Gauge = %v, want 12", gauges["chapters.resolvable"])
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("meetup.request", 100*time.Millisecond)
	m.RecordTiming("meetup.request", 200*time.Millisecond)
	m.RecordTiming("meetup.request", 150*time.Millisecond)

	snapshot := m.GetSnapshot()
	timings := snapshot["timings"].(map[string]map[string]interface{})

	apiTiming := timings["meetup.request"]
	if apiTiming["count"].(int) != 3 {
		t.Errorf("Timing count = %v, want 3", apiTiming["count"])
	}

	if apiTiming["min"].(string) != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", apiTiming["min"])
	}

	if apiTiming["max"].(string) != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", apiTiming["max"])
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	original := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(original)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("expected 4 log lines, got %d", got)
	}

	DefaultMetrics().IncrCounter("test")
	if DefaultMetrics().Counter("test") < 1 {
		t.Error("expected default metrics counter to be incremented")
	}
}
