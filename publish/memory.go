package publish

import (
	"context"
	"fmt"
	"sync"
)

// Call records one mutating request made against a Memory repository.
type Call struct {
	Op       string
	Name     string
	Message  string
	Revision string
}

// Memory is an in-process Repository.
type Memory struct {
	mu    sync.Mutex
	files map[string]memFile
	calls []Call
	rev   int

	// Unauthorized makes every request fail with ErrUnauthorized.
	Unauthorized bool
	// NoRepository makes every request fail with ErrNoRepository.
	NoRepository bool
	// Errors forces a failure for the named file.
	Errors map[string]error
}

type memFile struct {
	content  []byte
	revision string
}

func NewMemory() *Memory {
	return &Memory{files: map[string]memFile{}, Errors: map[string]error{}}
}

// Put seeds a file and returns its revision.
func (m *Memory) Put(name string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(name, content)
}

func (m *Memory) store(name string, content []byte) string {
	m.rev++
	rev := fmt.Sprintf("rev-%d", m.rev)
	m.files[name] = memFile{content: append([]byte(nil), content...), revision: rev}
	return rev
}

func (m *Memory) Content(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[name]
	return f.content, ok
}

func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Memory) check(name string) error {
	if m.Unauthorized {
		return ErrUnauthorized
	}
	if m.NoRepository {
		return ErrNoRepository
	}
	return m.Errors[name]
}

func (m *Memory) Get(_ context.Context, name string) (Lookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(name); err != nil {
		return Lookup{}, err
	}
	f, ok := m.files[name]
	if !ok {
		return Lookup{}, nil
	}
	return Lookup{Found: true, Entry: Entry{Name: name, Revision: f.revision}}, nil
}

func (m *Memory) Update(_ context.Context, name, message string, content []byte, revision string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(name); err != nil {
		return err
	}
	m.calls = append(m.calls, Call{Op: "update", Name: name, Message: message, Revision: revision})
	f, ok := m.files[name]
	if !ok || f.revision != revision {
		return ErrConflict
	}
	m.store(name, content)
	return nil
}

func (m *Memory) Create(_ context.Context, name, message string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(name); err != nil {
		return err
	}
	m.calls = append(m.calls, Call{Op: "create", Name: name, Message: message})
	if _, ok := m.files[name]; ok {
		return ErrConflict
	}
	m.store(name, content)
	return nil
}
