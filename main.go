package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/Sigewinne-330/GhostType-sub002/config"
	"github.com/Sigewinne-330/GhostType-sub002/encoder"
	"github.com/Sigewinne-330/GhostType-sub002/log"
	"github.com/Sigewinne-330/GhostType-sub002/metrics"
	"github.com/Sigewinne-330/GhostType-sub002/shutdown"
	"github.com/Sigewinne-330/GhostType-sub002/stream"
	"github.com/Sigewinne-330/GhostType-sub002/transcriber"
)

var version = "dev"

// batchInterval is the granularity at which the replay feeds audio to the
// pipeline, matching a typical capture callback period.
const batchInterval = 100 * time.Millisecond

func main() {
	run()
}

func run() {
	configFlag := flag.String("config", "", "Path to config file (default: ghosttype.yaml if present)")
	providerFlag := flag.String("provider", "whisper", "Transcription backend: whisper or fake")
	endpointFlag := flag.String("endpoint", "", "Whisper-compatible API endpoint (overrides config)")
	modelFlag := flag.String("model", "", "Model name (overrides config)")
	langFlag := flag.String("lang", "", "Language code, empty = auto-detect (overrides config)")
	realtimeFlag := flag.Float64("realtime", 0, "Replay speed factor: 1 = real time, 0 = as fast as possible")
	metricsFlag := flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("ghosttype %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = "ghosttype.yaml"
	}
	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if *endpointFlag != "" {
		settings.Transcriber.Endpoint = *endpointFlag
	}
	if *modelFlag != "" {
		settings.Transcriber.Model = *modelFlag
	}
	if *langFlag != "" {
		settings.Transcriber.Language = *langFlag
	}

	if *metricsFlag != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			fmt.Fprintf(os.Stderr, "metrics listening on http://%s/metrics\n", *metricsFlag)
			if err := http.ListenAndServe(*metricsFlag, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
			}
		}()
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ghosttype [flags] <wav-file>")
		os.Exit(1)
	}
	wavPath := args[0]

	chunk, full, err := newBackend(*providerFlag, settings.Transcriber)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := replay(wavPath, settings.StreamConfig(), chunk, full, *realtimeFlag); err != nil {
		log.Errorf("replay error: %v", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func newBackend(provider string, tc config.TranscriberConfig) (transcriber.ChunkTranscriber, transcriber.FullTranscriber, error) {
	switch provider {
	case "fake":
		fake := transcriber.NewFake()
		fake.SetFull(transcriber.FakeCall{Text: "(fake full transcription)"})
		return fake, fake, nil
	case "whisper":
		if tc.Endpoint == "" {
			return nil, nil, fmt.Errorf("no endpoint configured (set transcriber.endpoint or use -endpoint)")
		}
		var opts []transcriber.WhisperOption
		if tc.Model != "" {
			opts = append(opts, transcriber.WithModel(tc.Model))
		}
		if tc.Language != "" {
			opts = append(opts, transcriber.WithLanguage(tc.Language))
		}
		if tc.Timeout() > 0 {
			opts = append(opts, transcriber.WithTimeout(tc.Timeout()))
		}
		if tc.MaxRetries > 0 {
			opts = append(opts, transcriber.WithMaxRetries(tc.MaxRetries))
		}
		w := transcriber.NewWhisperServer(tc.Endpoint, tc.ResolveAPIKey(), opts...)
		return w, w, nil
	}
	return nil, nil, fmt.Errorf("unknown provider %q (use whisper or fake)", provider)
}

// replay feeds the WAV file into a live session batch by batch, printing
// pipeline snapshots as it goes and the final result at the end.
func replay(wavPath string, cfg stream.Config, chunk transcriber.ChunkTranscriber, full transcriber.FullTranscriber, realtime float64) error {
	samples, err := encoder.ReadWAVFile(wavPath)
	if err != nil {
		return err
	}
	audioDur := time.Duration(len(samples)) * time.Second / encoder.SampleRate
	fmt.Printf("Replaying %s (%.1fs of audio)\n", wavPath, audioDur.Seconds())

	sess, err := stream.NewSession(cfg, chunk, full)
	if err != nil {
		return err
	}

	// Ctrl-C abandons the session instead of waiting out the drain.
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "interrupted, cancelling session")
		sess.Cancel()
	}()

	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		for snap := range sess.Snapshots() {
			fmt.Printf("  [%s] chunks=%d queue=%d latency=%dms\n",
				snap.Status, snap.CompletedChunks, snap.QueueDepth,
				snap.LastChunkLatency.Milliseconds())
		}
	}()

	batch := int(batchInterval * encoder.SampleRate / time.Second)
	for off := 0; off < len(samples); off += batch {
		end := off + batch
		if end > len(samples) {
			end = len(samples)
		}
		sess.Append(samples[off:end])
		if realtime > 0 {
			time.Sleep(time.Duration(float64(batchInterval) / realtime))
		}
	}

	res := sess.Finish(wavPath)
	<-snapDone

	fmt.Println()
	fmt.Println(res.Transcript)
	fmt.Println()
	fmt.Printf("  language: %s\n", orDash(res.DetectedLanguage))
	fmt.Printf("  chunks: %d completed, %d failed, %d requests total\n",
		res.CompletedChunks, res.FailedChunks, res.ASRRequests)
	fmt.Printf("  merges: %d low-confidence\n", res.LowConfidenceMerges)
	fmt.Printf("  latency: first %dms, last %dms\n",
		res.FirstChunkLatency.Milliseconds(), res.LastChunkLatency.Milliseconds())
	fmt.Printf("  backlog: peak %.1fs\n", res.MaxBacklogSeconds)
	if res.FallbackUsed {
		fmt.Println("  fallback: full-audio transcription used")
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
