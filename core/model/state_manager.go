// Package model provides the shared estimator contracts for biomark:
// fitted-state management, classifier and transformer interfaces used by the
// evaluation engine, and tunable-parameter plumbing for grid search.
package model

import (
	"fmt"
	"sync"
)

// StateManager manages the fitted state of an estimator in a thread-safe
// manner. It is embedded by composition rather than inheritance.
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	// Dimensions seen during fitting.
	NFeatures int
	NSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{
		Fitted: false,
	}
}

// IsFitted returns whether the estimator has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the estimator as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions records the number of samples and features seen during Fit.
func (s *StateManager) SetDimensions(nSamples, nFeatures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NSamples = nSamples
	s.NFeatures = nFeatures
}

// CheckFitted returns an error when the estimator is not fitted yet.
func (s *StateManager) CheckFitted(name, method string) error {
	if !s.IsFitted() {
		return fmt.Errorf("%s: estimator is not fitted, call Fit() before %s()", name, method)
	}
	return nil
}
