package errors

import (
	"fmt"
	"sync"
	"time"
)

// EventError records a failure while applying one event of a session script.
type EventError struct {
	Index     int
	Event     string
	Err       error
	Timestamp time.Time
}

// Error implements the error interface
func (ee *EventError) Error() string {
	return fmt.Sprintf("event %d (%s): %v", ee.Index, ee.Event, ee.Err)
}

// Unwrap returns the underlying error
func (ee *EventError) Unwrap() error {
	return ee.Err
}

// ErrorCollector collects event errors and general errors
type ErrorCollector struct {
	eventErrors []EventError
	errors      []error
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		eventErrors: make([]EventError, 0),
		errors:      make([]error, 0),
	}
}

// Add adds an event error to the collector
func (ec *ErrorCollector) Add(err EventError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.eventErrors = append(ec.eventErrors, err)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns all collected event errors
func (ec *ErrorCollector) GetErrors() []EventError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]EventError, len(ec.eventErrors))
	copy(result, ec.eventErrors)
	return result
}

// GetAllErrors returns all collected errors (event and general)
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	all := make([]error, 0, len(ec.eventErrors)+len(ec.errors))
	for i := range ec.eventErrors {
		all = append(all, &ec.eventErrors[i])
	}
	all = append(all, ec.errors...)

	return all
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.eventErrors) > 0 || len(ec.errors) > 0
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.eventErrors = ec.eventErrors[:0]
	ec.errors = ec.errors[:0]
}
