package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/onair/internal/led"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingScanner struct{}

func (failingScanner) Family() string { return "hue" }

func (failingScanner) Scan(context.Context) ([]led.Device, error) {
	return nil, errors.New("bridge unreachable")
}

func TestRunScanListsDevices(t *testing.T) {
	var out bytes.Buffer
	scanners := []led.Scanner{&led.VirtualScanner{Count: 2, Logger: discardLogger()}}

	err := runScan(context.Background(), &out, scanners, led.DefaultEffects(), false, 0, discardLogger())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "2 lights connected.")
	assert.Contains(t, text, "FAMILY")
	assert.Contains(t, text, "virtual0")
	assert.Contains(t, text, "virtual1")
	assert.NotContains(t, text, "Lights off.")
}

func TestRunScanNoDevices(t *testing.T) {
	var out bytes.Buffer

	err := runScan(context.Background(), &out, nil, led.DefaultEffects(), true, 0, discardLogger())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "No lights connected.")
	assert.NotContains(t, out.String(), "FAMILY")
}

func TestRunScanTestCycle(t *testing.T) {
	var out bytes.Buffer
	scanners := []led.Scanner{&led.VirtualScanner{Count: 1, Logger: discardLogger()}}

	err := runScan(context.Background(), &out, scanners, led.DefaultEffects(), true, time.Millisecond, discardLogger())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	tail := lines[len(lines)-4:]
	assert.True(t, strings.HasPrefix(tail[0], "in-use"), tail[0])
	assert.Contains(t, tail[0], "#FF0000")
	assert.True(t, strings.HasPrefix(tail[1], "not-in-use"), tail[1])
	assert.Contains(t, tail[1], "#00BE00")
	assert.True(t, strings.HasPrefix(tail[2], "locked"), tail[2])
	assert.Contains(t, tail[2], "#FFFF00")
	assert.Equal(t, "Lights off.", tail[3])
}

func TestRunScanPartialFailure(t *testing.T) {
	var out bytes.Buffer
	scanners := []led.Scanner{
		&led.VirtualScanner{Count: 1, Logger: discardLogger()},
		failingScanner{},
	}

	err := runScan(context.Background(), &out, scanners, led.DefaultEffects(), false, 0, discardLogger())
	require.Error(t, err)

	assert.Contains(t, out.String(), "Some families failed")
	assert.Contains(t, out.String(), "1 light connected.")
}

func TestRunScanCanceledDuringTest(t *testing.T) {
	var out bytes.Buffer
	scanners := []led.Scanner{&led.VirtualScanner{Count: 1, Logger: discardLogger()}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := runScan(ctx, &out, scanners, led.DefaultEffects(), true, time.Hour, discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, out.String(), "Lights off.")
}

type fakeQuery struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (f *fakeQuery) set(users ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = users
}

func (f *fakeQuery) ActiveUsers(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...), f.err
}

// syncBuffer guards a bytes.Buffer shared with the watch goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPrintUsers(t *testing.T) {
	var out bytes.Buffer
	q := &fakeQuery{}

	require.NoError(t, printUsers(context.Background(), &out, q))
	assert.Equal(t, "Microphone not in use.\n", out.String())

	out.Reset()
	q.set("firefox", "zoom")
	require.NoError(t, printUsers(context.Background(), &out, q))
	assert.Equal(t, "Microphone in use by firefox, zoom.\n", out.String())

	q.err = errors.New("permission denied")
	assert.Error(t, printUsers(context.Background(), &out, q))
}

func TestWatchUsersPrintsChanges(t *testing.T) {
	out := &syncBuffer{}
	q := &fakeQuery{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchUsers(ctx, out, q, 5*time.Millisecond, discardLogger())
	}()

	// Let the poller seed before changing the set.
	time.Sleep(30 * time.Millisecond)
	q.set("obs")

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Microphone in use by obs.")
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestOptionsFamilies(t *testing.T) {
	opts := &Options{
		LightsLuxafor:     true,
		LightsSysfsLeds:   "led0, led1",
		LightsHueLights:   "Desk,3",
		LightsMqttTopics:  "lights/desk/set",
		LightsMqttTimeout: "2s",
		LightsVirtual:     1,
	}

	fam, err := opts.Families()
	require.NoError(t, err)
	assert.True(t, fam.Luxafor)
	assert.Equal(t, []string{"led0", "led1"}, fam.SysfsLEDs)
	assert.Equal(t, []string{"Desk", "3"}, fam.HueLights)
	assert.Equal(t, []string{"lights/desk/set"}, fam.MQTTTopics)
	assert.Equal(t, 2*time.Second, fam.MQTTTimeout)
	assert.Equal(t, 1, fam.Virtual)

	opts.LightsMqttTimeout = "soon"
	_, err = opts.Families()
	assert.Error(t, err)
}

func TestOptionsIntervals(t *testing.T) {
	opts := &Options{BlinkPeriod: "1500ms", MicPollInterval: "", HotplugSettle: "2s"}

	iv, err := opts.Intervals()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, iv.BlinkPeriod)
	assert.Equal(t, 500*time.Millisecond, iv.MicPoll)
	assert.Equal(t, 2*time.Second, iv.HotplugSettle)

	opts.HotplugSettle = "later"
	_, err = opts.Intervals()
	assert.Error(t, err)
}

func TestOptionsSettingsPath(t *testing.T) {
	opts := &Options{SettingsFile: "/etc/onair/settings.toml"}
	assert.Equal(t, "/etc/onair/settings.toml", opts.SettingsPath())

	opts.SettingsFile = ""
	assert.Equal(t, "settings.toml", filepath.Base(opts.SettingsPath()))
}

func TestOptionsLoggingConfig(t *testing.T) {
	opts := &Options{
		Config:        filepath.Join(t.TempDir(), "missing.toml"),
		LoggingLevel:  "warn",
		LoggingFormat: "json",
		LoggingLed:    "debug",
	}

	cfg := opts.LoggingConfig()
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "debug", cfg.Modules["led"])
	_, ok := cfg.Modules["api"]
	assert.False(t, ok)
}
