package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState(t *testing.T) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	// Global info, led at debug, api at warn
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"led": "debug",
			"api": "warn",
		},
	})

	tests := []struct {
		module      string
		wantDebug   bool
		wantInfo    bool
		wantWarn    bool
		description string
	}{
		{"led", true, true, true, "led module should log debug (override to debug)"},
		{"api", false, false, true, "api module should only log warn (override to warn)"},
		{"signals", false, true, true, "signals module should log info (global default)"},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestFanoutDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(newFanout(debugHandler, infoHandler)).With("module", "test")

	// Only debugHandler writes it
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
	if !strings.Contains(output, "module=test") {
		t.Errorf("module attribute missing. Output: %s", output)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	loggerBefore := GetLogger("mic")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"mic": "debug",
		},
	})

	loggerAfter := GetLogger("mic")
	if !loggerAfter.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("mic logger should have debug enabled after Initialize")
	}

	// The level var is shared, so the old handle follows too
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger obtained before Initialize should follow the module level")
	}
}

func TestLogsReachBufferAndCallback(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "debug", Format: "text"})

	var seen []LogEntry
	SetLogCallback(func(e LogEntry) { seen = append(seen, e) })
	t.Cleanup(func() { SetLogCallback(nil) })

	GetLogger("led").Info("Device opened", "family", "luxafor", "count", 2)

	entries := GetBuffer().ReadAll()
	if len(entries) != 1 {
		t.Fatalf("buffer has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Module != "led" || e.Level != "info" || e.Message != "Device opened" {
		t.Errorf("entry = %+v", e)
	}
	if e.Attributes["family"] != "luxafor" {
		t.Errorf("family attribute = %v", e.Attributes["family"])
	}
	if len(seen) != 1 || seen[0].Message != "Device opened" {
		t.Errorf("callback saw %+v", seen)
	}
}

func TestBufferHandlerAttributes(t *testing.T) {
	resetState(t)
	mutex.Lock()
	logBuffer = NewRingBuffer(4)
	mutex.Unlock()

	var level slog.LevelVar
	level.Set(slog.LevelWarn)
	logger := slog.New(NewBufferHandler(&level)).With("module", "signals")

	logger.Info("dropped")
	logger.WithGroup("dbus").Warn("Reconnecting",
		"error", errors.New("connection reset"),
		"wait", 2*time.Second,
		slog.Group("match", "member", "Lock"),
	)

	entries := GetBuffer().ReadAll()
	if len(entries) != 1 {
		t.Fatalf("buffer has %d entries, want 1", len(entries))
	}
	attrs := entries[0].Attributes
	want := map[string]any{
		"dbus.error":        "connection reset",
		"dbus.wait":         "2s",
		"dbus.match.member": "Lock",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %s = %v, want %v", k, attrs[k], v)
		}
	}
	if entries[0].Module != "signals" || entries[0].Level != "warn" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	if rb.ReadAll() != nil {
		t.Error("empty buffer should read nil")
	}
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		rb.Write(LogEntry{Message: msg})
	}
	if rb.Count() != 3 {
		t.Errorf("Count = %d, want 3", rb.Count())
	}
	var got []string
	for _, e := range rb.ReadAll() {
		got = append(got, e.Message)
	}
	if strings.Join(got, "") != "cde" {
		t.Errorf("ReadAll = %v, want oldest first c d e", got)
	}
	if first := rb.ReadAll()[0].Seq; first != 3 {
		t.Errorf("oldest Seq = %d, want 3", first)
	}
}

func TestRingBufferSince(t *testing.T) {
	rb := NewRingBuffer(4)
	for _, msg := range []string{"a", "b", "c", "d", "e", "f"} {
		rb.Write(LogEntry{Message: msg})
	}

	var got []string
	for _, e := range rb.Since(4) {
		got = append(got, e.Message)
	}
	if strings.Join(got, "") != "ef" {
		t.Errorf("Since(4) = %v, want e f", got)
	}
	// Entries 1 and 2 were overwritten; replay starts at the oldest held.
	all := rb.Since(1)
	if len(all) != 4 {
		t.Fatalf("Since(1) = %d entries, want 4", len(all))
	}
	if all[0].Seq != 3 {
		t.Errorf("Since(1) starts at %d, want 3", all[0].Seq)
	}
	if rest := rb.Since(6); rest != nil {
		t.Errorf("Since(latest) = %v, want nil", rest)
	}
}

func TestFormatLogLine(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	line := FormatLogLine(LogEntry{
		Timestamp:  ts,
		Level:      "warn",
		Module:     "mic",
		Message:    "Poll failed",
		Attributes: map[string]any{"b": 2, "a": "x"},
	})
	want := "2026-01-02T03:04:05Z [WARN] [mic] Poll failed a=x b=2"
	if line != want {
		t.Errorf("FormatLogLine = %q, want %q", line, want)
	}
}

func TestJournalFields(t *testing.T) {
	fields := make(map[string]string)
	addField(fields, "", slog.String("family", "hue"))
	addField(fields, "scan_", slog.Int("count", 3))
	addField(fields, "", slog.Group("dev", slog.Bool("ok", true)))
	addField(fields, "", slog.String("dbus.error", "timeout"))
	addField(fields, "", slog.Float64("ratio", 0.5))
	addField(fields, "", slog.Attr{})

	want := map[string]string{
		"FAMILY":     "hue",
		"SCAN_COUNT": "3",
		"DEV_OK":     "true",
		"DBUS_ERROR": "timeout",
		"RATIO":      "0.5",
	}
	if len(fields) != len(want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, fields[k], v)
		}
	}
}

func TestJournalFieldName(t *testing.T) {
	for key, want := range map[string]string{
		"module":     "MODULE",
		"dbus.error": "DBUS_ERROR",
		"_secret":    "SECRET",
		"hue-light2": "HUE_LIGHT2",
		"...":        "",
	} {
		if got := fieldName(key); got != want {
			t.Errorf("fieldName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{" info ", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"invalid", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseLevel(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetLevelRuntime(t *testing.T) {
	resetState(t)

	Initialize(Config{Level: "info", Format: "text", Modules: map[string]string{"api": "warn"}})
	led := GetLogger("led").Handler()
	api := GetLogger("api").Handler()
	ctx := context.Background()

	if err := SetLevel("led", "debug"); err != nil {
		t.Fatalf("SetLevel(led) error = %v", err)
	}
	if !led.Enabled(ctx, slog.LevelDebug) {
		t.Error("led should log debug after SetLevel")
	}

	// Global change reaches modules without an override only.
	if err := SetLevel("", "error"); err != nil {
		t.Fatalf("SetLevel(global) error = %v", err)
	}
	if !led.Enabled(ctx, slog.LevelDebug) {
		t.Error("led override should survive a global change")
	}
	if !api.Enabled(ctx, slog.LevelWarn) {
		t.Error("api override should survive a global change")
	}
	if GetLogger("signals").Handler().Enabled(ctx, slog.LevelWarn) {
		t.Error("signals should follow the global error level")
	}

	// A module without a logger yet gets its level when one is created.
	if err := SetLevel("mic", "debug"); err != nil {
		t.Fatalf("SetLevel(mic) error = %v", err)
	}
	if !GetLogger("mic").Handler().Enabled(ctx, slog.LevelDebug) {
		t.Error("mic should be created at debug")
	}

	err := SetLevel("led", "loud")
	if !errors.Is(err, ErrUnknownLevel) {
		t.Errorf("SetLevel(loud) error = %v, want ErrUnknownLevel", err)
	}
}

func TestLevels(t *testing.T) {
	resetState(t)

	Initialize(Config{Level: "warn", Format: "text", Modules: map[string]string{"settings": "debug"}})
	GetLogger("led")

	global, modules := Levels()
	if global != "warn" {
		t.Errorf("global = %q, want warn", global)
	}
	if modules["led"] != "warn" {
		t.Errorf("led = %q, want warn", modules["led"])
	}
	if modules["settings"] != "debug" {
		t.Errorf("settings = %q, want debug", modules["settings"])
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestFanoutJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	h := newFanout(failingHandler{ok}, ok)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "still written", 0)
	if err := h.Handle(context.Background(), r); err == nil || !strings.Contains(err.Error(), "sink down") {
		t.Errorf("Handle error = %v, want sink down", err)
	}
	if !strings.Contains(buf.String(), "still written") {
		t.Errorf("healthy handler skipped. Output: %s", buf.String())
	}
	if single := newFanout(ok); single != slog.Handler(ok) {
		t.Error("single handler should be returned unwrapped")
	}
}
