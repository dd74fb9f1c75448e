package database

import (
	"context"
	"fmt"
	"sync"
)

var (
	backendMu    sync.RWMutex
	resultReader func() ResultReader
	resultWriter func() ResultWriter
	backendName  string
)

// RegisterResultBackend registers the result store constructors.
// This is called by the backend packages to avoid import cycles.
// reader may be nil for write-only backends such as DynamoDB.
func RegisterResultBackend(name string, reader func() ResultReader, writer func() ResultWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendName = name
	resultReader = reader
	resultWriter = writer
}

// BackendName returns the name of the registered backend, or "" if none.
func BackendName() string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backendName
}

// GetResultReader returns a ResultReader from the registered backend
func GetResultReader(ctx context.Context) (ResultReader, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if backendName == "" {
		return nil, fmt.Errorf("result store not initialized: RESULT_STORE is required")
	}
	if resultReader == nil {
		return nil, fmt.Errorf("result store %s does not support reads", backendName)
	}
	return resultReader(), nil
}

// GetResultWriter returns a ResultWriter from the registered backend
func GetResultWriter(ctx context.Context) (ResultWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if backendName == "" {
		return nil, fmt.Errorf("result store not initialized: RESULT_STORE is required")
	}
	if resultWriter == nil {
		return nil, fmt.Errorf("result store %s writer not registered", backendName)
	}
	return resultWriter(), nil
}
