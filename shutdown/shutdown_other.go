//go:build !windows

// Package shutdown funnels OS termination signals into one channel so the
// replay driver can cancel an in-flight session cleanly.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
