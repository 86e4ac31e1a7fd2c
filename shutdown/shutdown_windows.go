//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

// Notify registers ch for interrupt; Windows has no SIGTERM delivery.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
