package accounts_test

import (
	"context"
	"fmt"
	"sync"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/mock"
)

// MockPrincipalStore is a testify mock over the live-account lookup.
type MockPrincipalStore struct {
	mock.Mock
}

func (m *MockPrincipalStore) FindBySubject(ctx context.Context, subject string) (*accounts.User, error) {
	args := m.Called(ctx, subject)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLogger captures log lines for assertions.
type MockLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *MockLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+fmt.Sprintf(format, args...))
}

func (l *MockLogger) Debug(format string, args ...any) { l.record("DBG", format, args...) }
func (l *MockLogger) Info(format string, args ...any)  { l.record("INF", format, args...) }
func (l *MockLogger) Warn(format string, args ...any)  { l.record("WRN", format, args...) }
func (l *MockLogger) Error(format string, args ...any) { l.record("ERR", format, args...) }

func (l *MockLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// FailingMailer always reports a transport failure.
type FailingMailer struct {
	Err error
}

func (m *FailingMailer) Send(ctx context.Context, subject, to, body string) error {
	if m.Err != nil {
		return m.Err
	}
	return fmt.Errorf("smtp: connection refused")
}
