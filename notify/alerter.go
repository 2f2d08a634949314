package notify

import (
	"betstream/contract"
	"log/slog"
	"sync"
)

// LogAlerter is the platform alert surface of a headless deployment: alerts
// land in the log, keyed so a repeat for the same key replaces the previous
// line's meaning rather than stacking state.
type LogAlerter struct {
	log *slog.Logger

	mu         sync.Mutex
	permission contract.Permission
	raised     map[string]string
}

func NewLogAlerter(log *slog.Logger) *LogAlerter {
	return &LogAlerter{
		log:        log,
		permission: contract.PermissionDefault,
		raised:     make(map[string]string),
	}
}

func (a *LogAlerter) Permission() contract.Permission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.permission
}

func (a *LogAlerter) RequestPermission() contract.Permission {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.permission == contract.PermissionDefault {
		a.permission = contract.PermissionGranted
	}
	return a.permission
}

func (a *LogAlerter) Alert(key, title, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if previous, ok := a.raised[key]; ok {
		a.log.Debug("Replacing platform alert", "key", key, "previous", previous)
	}
	a.raised[key] = title
	a.log.Info("Platform alert", "key", key, "title", title, "message", message)
	return nil
}
