package db

import (
	"errors"
)

// ErrManagerStopped is returned for operations submitted after Stop
var ErrManagerStopped = errors.New("database manager stopped")

// Operation represents a database operation that needs to be executed
type Operation struct {
	Execute func() error
	Result  chan error
}

// DBManager serializes write access to the embedded database through a
// single worker goroutine
type DBManager struct {
	opQueue  chan Operation
	stopping chan struct{}
}

// NewDBManager creates a new database manager and starts its worker
func NewDBManager() *DBManager {
	m := &DBManager{
		opQueue:  make(chan Operation, 100),
		stopping: make(chan struct{}),
	}

	go m.worker()

	return m
}

// worker processes operations one at a time
func (m *DBManager) worker() {
	for {
		select {
		case op := <-m.opQueue:
			op.Result <- op.Execute()
		case <-m.stopping:
			return
		}
	}
}

// ExecuteOperation runs execute on the worker goroutine and waits for it.
// A nil manager runs the operation inline.
func (m *DBManager) ExecuteOperation(execute func() error) error {
	if m == nil {
		return execute()
	}

	resultChan := make(chan error, 1)
	select {
	case m.opQueue <- Operation{Execute: execute, Result: resultChan}:
	case <-m.stopping:
		return ErrManagerStopped
	}

	select {
	case err := <-resultChan:
		return err
	case <-m.stopping:
		return ErrManagerStopped
	}
}

// Stop stops the database manager
func (m *DBManager) Stop() {
	select {
	case <-m.stopping:
	default:
		close(m.stopping)
	}
}
