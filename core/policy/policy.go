// Package policy implements the minimal stand-in for the out-of-scope
// "access policy" collaborator: a JSON file listing which users may queue
// tracks and which are admins, hot-reloaded on edit.
//
// Grounded on server/ws_stream.go's fsnotify.Watcher usage (there, watching a
// temp directory for new HLS segment files); here the watched target is a
// single config file instead of a stream of media segments.
package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"oneradio/logger"

	"github.com/fsnotify/fsnotify"
)

type document struct {
	AllowedIDs []string `json:"allowedIds"`
	AdminIDs   []string `json:"adminIds"`
}

// Policy is the file-backed allow/admin list. Safe for concurrent use; the
// file is re-read on every fsnotify write/create event for its path.
type Policy struct {
	path string

	mu      sync.RWMutex
	allowed map[string]bool
	admins  map[string]bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Load reads path once and starts watching its containing directory for
// subsequent edits. A missing file is treated as an empty policy (nobody
// allowed) rather than an error, since operators may stand the service up
// before provisioning the allow-list.
func Load(path string) (*Policy, error) {
	p := &Policy{
		path:    path,
		allowed: make(map[string]bool),
		admins:  make(map[string]bool),
		done:    make(chan struct{}),
	}
	p.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	p.watcher = watcher

	go p.watch()
	return p, nil
}

func (p *Policy) watch() {
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				p.reload()
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("policy watcher error", logger.ErrorField(err))
		case <-p.done:
			return
		}
	}
}

func (p *Policy) reload() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("policy reload failed", logger.ErrorField(err), logger.String("path", p.path))
		}
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("policy file invalid JSON, keeping previous policy", logger.ErrorField(err))
		return
	}

	allowed := make(map[string]bool, len(doc.AllowedIDs))
	for _, id := range doc.AllowedIDs {
		allowed[id] = true
	}
	admins := make(map[string]bool, len(doc.AdminIDs))
	for _, id := range doc.AdminIDs {
		admins[id] = true
	}

	p.mu.Lock()
	p.allowed = allowed
	p.admins = admins
	p.mu.Unlock()

	logger.Info("access policy reloaded", logger.Int("allowed", len(allowed)), logger.Int("admins", len(admins)))
}

// IsAllowed reports whether userID may submit tracks to the queue.
func (p *Policy) IsAllowed(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.allowed[userID] || p.admins[userID]
}

// IsAdmin reports whether userID has admin privileges.
func (p *Policy) IsAdmin(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.admins[userID]
}

// Close stops the file watcher.
func (p *Policy) Close() error {
	close(p.done)
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}
