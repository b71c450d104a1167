// Package common carries the governance pause plumbing shared by the
// native engines.
package common

import (
	"errors"
	"sync"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named module is paused by governance.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view means no
// pause authority is wired and the call proceeds.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Switchboard is an in-memory PauseView with toggle access for operators.
type Switchboard struct {
	mu     sync.RWMutex
	paused map[string]bool
}

func NewSwitchboard() *Switchboard {
	return &Switchboard{paused: make(map[string]bool)}
}

func (s *Switchboard) Pause(module string) {
	s.mu.Lock()
	s.paused[module] = true
	s.mu.Unlock()
}

func (s *Switchboard) Resume(module string) {
	s.mu.Lock()
	delete(s.paused, module)
	s.mu.Unlock()
}

func (s *Switchboard) IsPaused(module string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused[module]
}
