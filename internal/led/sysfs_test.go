package led

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeLED(t *testing.T, classPath, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(classPath, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for f, v := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readLEDFile(t *testing.T, dir, file string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		t.Fatalf("read %s: %v", file, err)
	}
	return strings.TrimSpace(string(data))
}

func TestSysfs_MulticolorSetColor(t *testing.T) {
	classPath := t.TempDir()
	dir := makeLED(t, classPath, "rgb:status", map[string]string{
		"max_brightness": "255\n",
		"multi_index":    "red green blue\n",
	})

	dev, err := openSysfs("rgb:status", dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := dev.SetColor(TargetAll, DefaultNotInUse, SolidFadeMs); err != nil {
		t.Fatal(err)
	}
	if got := readLEDFile(t, dir, "trigger"); got != "none" {
		t.Errorf("trigger = %q, want none", got)
	}
	if got := readLEDFile(t, dir, "multi_intensity"); got != "0 190 0" {
		t.Errorf("multi_intensity = %q", got)
	}
	if got := readLEDFile(t, dir, "brightness"); got != "255" {
		t.Errorf("brightness = %q, want 255", got)
	}

	if err := dev.SetColor(TargetAll, Black, 0); err != nil {
		t.Fatal(err)
	}
	if got := readLEDFile(t, dir, "brightness"); got != "0" {
		t.Errorf("brightness after black = %q, want 0", got)
	}
}

func TestSysfs_SingleColorBlink(t *testing.T) {
	classPath := t.TempDir()
	dir := makeLED(t, classPath, "usr_led", nil)

	dev, err := openSysfs("usr_led", dir)
	if err != nil {
		t.Fatal(err)
	}
	if dev.max != 1 || len(dev.channels) != 0 {
		t.Errorf("single-color led parsed as %+v", dev)
	}

	if err := dev.Blink(TargetAll, Red, BlinkFadeMs, BlinkRepeat); err != nil {
		t.Fatal(err)
	}
	if got := readLEDFile(t, dir, "trigger"); got != "oneshot" {
		t.Errorf("trigger = %q, want oneshot", got)
	}
	if got := readLEDFile(t, dir, "delay_on"); got != "200" {
		t.Errorf("delay_on = %q, want 200", got)
	}
	if got := readLEDFile(t, dir, "shot"); got != "1" {
		t.Errorf("shot = %q, want 1", got)
	}
}

func TestSysfs_Wave(t *testing.T) {
	dir := makeLED(t, t.TempDir(), "sys_led", nil)
	dev, err := openSysfs("sys_led", dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := dev.Wave(WaveShort, Red, WaveDurationMs, WaveRepeat); err != nil {
		t.Fatal(err)
	}
	if got := readLEDFile(t, dir, "trigger"); got != "heartbeat" {
		t.Errorf("trigger = %q, want heartbeat", got)
	}
}

func TestSysfsScanner_BoardFallback(t *testing.T) {
	classPath := t.TempDir()
	makeLED(t, classPath, "usr_led", nil)

	s := &SysfsScanner{
		ClassPath:  classPath,
		Logger:     testLogger(),
		boardModel: func() string { return "FriendlyElec NanoPC-T6" },
	}

	devs, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// sys_led is absent and skipped.
	if len(devs) != 1 || devs[0].Name() != "usr_led" {
		t.Errorf("Scan() = %v, want only usr_led", devs)
	}
}

func TestSysfsScanner_ExplicitNames(t *testing.T) {
	classPath := t.TempDir()
	makeLED(t, classPath, "a", nil)
	makeLED(t, classPath, "b", nil)

	s := &SysfsScanner{ClassPath: classPath, Names: []string{"b"}}

	devs, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(devs) != 1 || devs[0].Name() != "b" {
		t.Errorf("Scan() = %v, want only b", devs)
	}
}
