package swarm

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalManager lets an operator steer a running swarm through files in
// the .swarm/signals directory: "pause" holds scheduling between tiers,
// "kill" stops the run. A file watcher picks signals up immediately;
// direct stat checks cover the case where the watcher is unavailable.
type SignalManager struct {
	signalsDir string

	mu          sync.RWMutex
	killSignal  bool
	pauseSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalManager creates a signal manager rooted at the given project
// directory. The watcher is best-effort: when it cannot be created the
// manager still works via stat polling.
func NewSignalManager(projectRoot string) (*SignalManager, error) {
	signalsDir := filepath.Join(projectRoot, ".swarm", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sm := &SignalManager{
		signalsDir: signalsDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return sm, nil
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		return sm, nil
	}
	sm.watcher = watcher
	go sm.watch()

	return sm, nil
}

func (sm *SignalManager) watch() {
	for {
		select {
		case <-sm.done:
			return
		case event, ok := <-sm.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			sm.mu.Lock()
			switch filepath.Base(event.Name) {
			case "kill":
				sm.killSignal = true
			case "pause":
				sm.pauseSignal = true
			}
			sm.mu.Unlock()
		case <-sm.watcher.Errors:
			// Keep watching; stat checks cover missed events.
		}
	}
}

// checkFile refreshes a signal flag from the file on disk.
func (sm *SignalManager) checkFile(name string, flag *bool) bool {
	if _, err := os.Stat(filepath.Join(sm.signalsDir, name)); err == nil {
		sm.mu.Lock()
		*flag = true
		sm.mu.Unlock()
	} else {
		sm.mu.Lock()
		*flag = false
		sm.mu.Unlock()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return *flag
}

// ShouldKill reports whether a kill signal is active.
func (sm *SignalManager) ShouldKill() bool {
	return sm.checkFile("kill", &sm.killSignal)
}

// ShouldPause reports whether a pause signal is active. Removing the
// pause file resumes the run.
func (sm *SignalManager) ShouldPause() bool {
	return sm.checkFile("pause", &sm.pauseSignal)
}

// SendKill creates the kill signal file.
func (sm *SignalManager) SendKill() error {
	return os.WriteFile(filepath.Join(sm.signalsDir, "kill"),
		[]byte(time.Now().Format(time.RFC3339)), 0644)
}

// SendPause creates the pause signal file.
func (sm *SignalManager) SendPause() error {
	return os.WriteFile(filepath.Join(sm.signalsDir, "pause"),
		[]byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes all signal files and resets state.
func (sm *SignalManager) ClearSignals() {
	sm.mu.Lock()
	sm.killSignal = false
	sm.pauseSignal = false
	sm.mu.Unlock()

	os.Remove(filepath.Join(sm.signalsDir, "kill"))
	os.Remove(filepath.Join(sm.signalsDir, "pause"))
}

// Close shuts the watcher down.
func (sm *SignalManager) Close() {
	close(sm.done)
	if sm.watcher != nil {
		sm.watcher.Close()
	}
}
