/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package dispatch

import "sync"

// Locks serializes access to the shared state: one mutex per file path and a
// single mutex for the workflow log. The zero value is ready to use.
type Locks struct {
	paths    sync.Map // path -> *sync.Mutex
	workflow sync.Mutex
}

// pathMutex gets or creates the mutex for path
func (l *Locks) pathMutex(path string) *sync.Mutex {
	value, _ := l.paths.LoadOrStore(path, &sync.Mutex{})
	return value.(*sync.Mutex)
}

// WithPath runs fn holding the lock for path
func (l *Locks) WithPath(path string, fn func() error) error {
	mu := l.pathMutex(path)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// WithWorkflow runs fn holding the workflow lock
func (l *Locks) WithWorkflow(fn func() error) error {
	l.workflow.Lock()
	defer l.workflow.Unlock()
	return fn()
}
