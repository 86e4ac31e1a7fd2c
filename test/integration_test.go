//go:build integration

package test_test

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sigewinne-330/GhostType-sub002/encoder"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("GHOSTTYPE_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "GHOSTTYPE_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}

	if err := os.MkdirAll("data", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create data dir: %v\n", err)
		os.Exit(1)
	}
	if err := encoder.WriteWAVFile(filepath.Join("data", "silence.wav"), silence(1.0)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate silence.wav: %v\n", err)
		os.Exit(1)
	}
	if err := encoder.WriteWAVFile(filepath.Join("data", "tone.wav"), tone(5.0)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate tone.wav: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(filepath.Join("data", "silence.wav"))
	defer os.Remove(filepath.Join("data", "tone.wav"))

	os.Exit(m.Run())
}

func silence(durationS float64) []int16 {
	return make([]int16, int(durationS*encoder.SampleRate))
}

// tone generates a 440 Hz sine loud enough to register as speech.
func tone(durationS float64) []int16 {
	n := int(durationS * encoder.SampleRate)
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/encoder.SampleRate))
	}
	return out
}

func runReplay(t *testing.T, args ...string) (output, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-provider", "fake"}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("ghosttype exited with error: %v\noutput: %s", err, out)
	}
	return string(out), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestReplayTone(t *testing.T) {
	out, logDir := runReplay(t, filepath.Join("data", "tone.wav"))
	if !strings.Contains(out, "Replaying") {
		t.Errorf("missing replay banner in output:\n%s", out)
	}
	if !strings.Contains(out, "chunks:") {
		t.Errorf("missing chunk summary in output:\n%s", out)
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "session_start") {
		t.Error("expected session_start in diagnostics")
	}
	if !strings.Contains(diag, "session_end") {
		t.Error("expected session_end in diagnostics")
	}
}

func TestReplaySilence(t *testing.T) {
	// Pure silence schedules no chunks; the fake full transcription covers
	// the empty transcript at finish.
	out, _ := runReplay(t, filepath.Join("data", "silence.wav"))
	if !strings.Contains(out, "fallback: full-audio transcription used") {
		t.Errorf("expected fallback on silent input, got:\n%s", out)
	}
}

func TestReplayRejectsUnknownProvider(t *testing.T) {
	cmd := exec.Command(testBinary, "-provider", "nonsense", filepath.Join("data", "tone.wav"))
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("unknown provider accepted:\n%s", out)
	}
	if !strings.Contains(string(out), "unknown provider") {
		t.Errorf("unexpected error output:\n%s", out)
	}
}
