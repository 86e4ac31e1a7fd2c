// Package log writes the session's diagnostic stream and the transcript
// text log. All functions are no-ops until Init succeeds so library tests
// and embedders that do not care about logs stay silent.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: GHOSTTYPE_LOG_PATH environment variable
	envPath := os.Getenv("GHOSTTYPE_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// ChunkFailed records one failed chunk transcription.
func ChunkFailed(chunkID int, latency time.Duration, err error) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Int("chunk_id", chunkID).
		Int64("latency_ms", latency.Milliseconds()).
		Err(err).
		Msg("chunk_failed")
}

// FallbackTriggered records why the session degraded to full-recording mode.
func FallbackTriggered(reason string, failedChunks, completedChunks int, backlogSeconds float64) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("reason", reason).
		Int("failed_chunks", failedChunks).
		Int("completed_chunks", completedChunks).
		Float64("backlog_s", backlogSeconds).
		Msg("fallback_triggered")
}

// FallbackError records a failed full-recording fallback transcription. The
// partial transcript is kept, so this is a warning rather than fatal.
func FallbackError(err error) {
	if !logReady {
		return
	}
	diagLog.Warn().Err(err).Msg("fallback_failed")
}

// SessionStart records a new live-transcription session.
func SessionStart(stepS, overlapS float64, maxInFlight int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("step_s", stepS).
		Float64("overlap_s", overlapS).
		Int("max_in_flight", maxInFlight).
		Msg("session_start")
}

// SessionEnd records the final tally of one session.
func SessionEnd(completedChunks, failedChunks, asrRequests, lowConfidenceMerges int, fallbackUsed bool, maxBacklogS float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("completed_chunks", completedChunks).
		Int("failed_chunks", failedChunks).
		Int("asr_requests", asrRequests).
		Int("low_confidence_merges", lowConfidenceMerges).
		Bool("fallback_used", fallbackUsed).
		Float64("max_backlog_s", maxBacklogS).
		Msg("session_end")
}

// TranscriptionText appends the final transcript to the text log.
func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}
