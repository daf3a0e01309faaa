package daemon

import (
	"log/slog"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports lifecycle transitions to the service manager.
type Notifier interface {
	Ready()
	Stopping()
	Watchdog()

	// WatchdogInterval returns the watchdog timeout, or zero when disabled.
	WatchdogInterval() time.Duration
}

// SystemdNotifier notifies systemd through NOTIFY_SOCKET. Every call is a
// no-op when the process is not run by systemd.
type SystemdNotifier struct{}

func (SystemdNotifier) Ready()    { notify(sddaemon.SdNotifyReady) }
func (SystemdNotifier) Stopping() { notify(sddaemon.SdNotifyStopping) }
func (SystemdNotifier) Watchdog() { notify(sddaemon.SdNotifyWatchdog) }

func (SystemdNotifier) WatchdogInterval() time.Duration {
	interval, err := sddaemon.SdWatchdogEnabled(false)
	if err != nil {
		slog.Warn("invalid systemd watchdog settings", "error", err)
		return 0
	}
	return interval
}

func notify(state string) {
	sent, err := sddaemon.SdNotify(false, state)
	if err != nil {
		slog.Warn("systemd notify failed", "state", state, "error", err)
		return
	}
	if sent {
		slog.Debug("systemd notified", "state", state)
	}
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Ready()                          {}
func (NopNotifier) Stopping()                       {}
func (NopNotifier) Watchdog()                       {}
func (NopNotifier) WatchdogInterval() time.Duration { return 0 }
