package model

import (
	"sync"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Estimators hold one by composition instead of embedding a base type.
type StateManager struct {
	mu     sync.RWMutex
	fitted bool

	nFeatures int
	nSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as fitted with the shape of its training data.
func (s *StateManager) SetFitted(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError naming the model and the method
// the caller attempted when the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// CheckFeatures validates that X has as many columns as the training data.
func (s *StateManager) CheckFeatures(op string, X mat.Matrix) error {
	_, c := X.Dims()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c != s.nFeatures {
		return errors.NewDimensionError(op, s.nFeatures, c, 1)
	}
	return nil
}
