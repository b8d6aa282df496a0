package eval

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockHost is a testify/mock implementation of Host, for tests that
// want to assert on call sequence/arguments rather than inspect a
// recorded log.
type MockHost struct {
	mock.Mock
}

var _ Host = (*MockHost)(nil)

func (m *MockHost) GetSize(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHost) GetHeader(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHost) GetEnvelope(ctx context.Context, field string) ([]string, error) {
	args := m.Called(ctx, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHost) GetBody(ctx context.Context, contentTypes []string) ([]BodyPart, error) {
	args := m.Called(ctx, contentTypes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BodyPart), args.Error(1)
}

func (m *MockHost) Redirect(ctx context.Context, addr string, copy bool) error {
	return m.Called(ctx, addr, copy).Error(0)
}

func (m *MockHost) Discard(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHost) Reject(ctx context.Context, msg string) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockHost) FileInto(ctx context.Context, mailbox string, copy bool, imapFlags []string) error {
	return m.Called(ctx, mailbox, copy, imapFlags).Error(0)
}

func (m *MockHost) Keep(ctx context.Context, imapFlags []string) error {
	return m.Called(ctx, imapFlags).Error(0)
}

func (m *MockHost) Notify(ctx context.Context, method string, options []string, priority int32, message string) error {
	return m.Called(ctx, method, options, priority, message).Error(0)
}

func (m *MockHost) VacationAutorespond(ctx context.Context, fingerprint [16]byte, days int64) (bool, error) {
	args := m.Called(ctx, fingerprint, days)
	return args.Bool(0), args.Error(1)
}

func (m *MockHost) VacationSendResponse(ctx context.Context, to, from, subject, body string, mime bool) error {
	return m.Called(ctx, to, from, subject, body, mime).Error(0)
}

func (m *MockHost) GetInclude(ctx context.Context, scriptName string, isGlobal bool) (string, error) {
	args := m.Called(ctx, scriptName, isGlobal)
	return args.String(0), args.Error(1)
}

func (m *MockHost) ExecuteError(msg string) {
	m.Called(msg)
}
