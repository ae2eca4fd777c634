package testutils

import (
	"context"

	"github.com/atmoslabs/atmos/pkg/model"
)

// MockBackend is a configurable model backend for tests.
type MockBackend struct {
	// BackendName is returned by Name.
	BackendName string

	// Answer is returned by Generate when Err is nil.
	Answer string

	// Err causes Generate to fail.
	Err error

	// Calls counts Generate invocations.
	Calls int

	// LastContext and LastQuery record the most recent Generate inputs.
	LastContext string
	LastQuery   string
}

func (m *MockBackend) Name() string {
	if m.BackendName == "" {
		return "mock"
	}
	return m.BackendName
}

func (m *MockBackend) Generate(_ context.Context, contextText, query string, _ model.Options) (string, error) {
	m.Calls++
	m.LastContext = contextText
	m.LastQuery = query

	if m.Err != nil {
		return "", m.Err
	}
	return m.Answer, nil
}

func (m *MockBackend) Close() error {
	return nil
}

var _ model.Backend = (*MockBackend)(nil)
