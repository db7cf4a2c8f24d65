package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// --- mocks ---

type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Send(ctx context.Context, to, subject, html string) (string, error) {
	args := m.Called(ctx, to, subject, html)
	return args.String(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newChain(primary, secondary *mockProvider) *Dispatcher {
	return NewDispatcher(discardLogger(),
		Attempt{Channel: domain.ChannelPrimary, Provider: primary},
		Attempt{Channel: domain.ChannelSecondary, Provider: secondary, Kinds: UserBlockingKinds},
	)
}

var codeData = map[string]string{"code": "123456", "username": "alice"}

func TestDispatch_PrimarySuccess(t *testing.T) {
	primary := &mockProvider{name: "mailapi"}
	secondary := &mockProvider{name: "smtp"}
	primary.On("Send", mock.Anything, "a@b.com", "Your verification code", mock.MatchedBy(func(html string) bool {
		return assert.Contains(t, html, "123456")
	})).Return("m-1", nil)

	out := newChain(primary, secondary).Dispatch(context.Background(), domain.KindVerification, "a@b.com", codeData)

	assert.True(t, out.Success)
	assert.Equal(t, domain.ChannelPrimary, out.Channel)
	assert.Equal(t, "m-1", out.MessageID)
	primary.AssertExpectations(t)
	secondary.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_VerificationFallsBackToSecondary(t *testing.T) {
	primary := &mockProvider{name: "mailapi"}
	secondary := &mockProvider{name: "smtp"}
	primary.On("Send", mock.Anything, "a@b.com", mock.Anything, mock.Anything).Return("", errors.New("status 503"))
	secondary.On("Send", mock.Anything, "a@b.com", "Your verification code", mock.Anything).Return("", nil)

	out := newChain(primary, secondary).Dispatch(context.Background(), domain.KindVerification, "a@b.com", codeData)

	assert.True(t, out.Success)
	assert.Equal(t, domain.ChannelSecondary, out.Channel)
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestDispatch_SecondaryReceivesSameRenderedContent(t *testing.T) {
	primary := &mockProvider{name: "mailapi"}
	secondary := &mockProvider{name: "smtp"}
	var primaryHTML, secondaryHTML string
	primary.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { primaryHTML = args.String(3) }).
		Return("", errors.New("down"))
	secondary.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { secondaryHTML = args.String(3) }).
		Return("", nil)

	newChain(primary, secondary).Dispatch(context.Background(), domain.KindWelcome, "a@b.com", map[string]string{"username": "alice"})

	require.NotEmpty(t, primaryHTML)
	assert.Equal(t, primaryHTML, secondaryHTML)
}

func TestDispatch_BothFailKeepsBothErrors(t *testing.T) {
	primary := &mockProvider{name: "mailapi"}
	secondary := &mockProvider{name: "smtp"}
	errPrimary := errors.New("primary exploded")
	errSecondary := errors.New("secondary exploded")
	primary.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errPrimary)
	secondary.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errSecondary)

	out := newChain(primary, secondary).Dispatch(context.Background(), domain.KindWelcome, "a@b.com", map[string]string{"username": "alice"})

	assert.False(t, out.Success)
	assert.Equal(t, domain.ChannelSecondary, out.Channel)
	assert.True(t, errors.Is(out.Err, errPrimary))
	assert.True(t, errors.Is(out.Err, errSecondary))
}

func TestDispatch_NonBlockingKindHasNoFallback(t *testing.T) {
	primary := &mockProvider{name: "mailapi"}
	secondary := &mockProvider{name: "smtp"}
	errPrimary := errors.New("primary exploded")
	primary.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errPrimary)

	out := newChain(primary, secondary).Dispatch(context.Background(), domain.KindSecurityAlert, "a@b.com", map[string]string{
		"username": "alice", "event": "new login", "timestamp": "now", "ip": "1.1.1.1",
	})

	assert.False(t, out.Success)
	assert.Equal(t, domain.ChannelPrimary, out.Channel)
	assert.True(t, errors.Is(out.Err, errPrimary))
	secondary.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_InvalidRecipientStopsChain(t *testing.T) {
	primary := &mockProvider{name: "mailapi"}
	secondary := &mockProvider{name: "smtp"}
	primary.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", domain.ErrInvalidRecipient)

	out := newChain(primary, secondary).Dispatch(context.Background(), domain.KindVerification, "bogus", codeData)

	assert.False(t, out.Success)
	assert.True(t, errors.Is(out.Err, domain.ErrInvalidRecipient))
	secondary.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_UnknownKindMakesNoAttempt(t *testing.T) {
	primary := &mockProvider{name: "mailapi"}

	out := NewDispatcher(discardLogger(), Attempt{Channel: domain.ChannelPrimary, Provider: primary}).
		Dispatch(context.Background(), domain.TemplateKind("digest"), "a@b.com", nil)

	assert.False(t, out.Success)
	assert.True(t, errors.Is(out.Err, domain.ErrUnknownTemplateKind))
	primary.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_NoAcceptingAttempt(t *testing.T) {
	secondary := &mockProvider{name: "smtp"}
	d := NewDispatcher(discardLogger(), Attempt{Channel: domain.ChannelSecondary, Provider: secondary, Kinds: UserBlockingKinds})

	out := d.Dispatch(context.Background(), domain.KindPasswordReset, "a@b.com", map[string]string{"resetLink": "https://x"})

	assert.False(t, out.Success)
	assert.ErrorContains(t, out.Err, "no transport configured")
}

type multipartProvider struct {
	mockProvider
}

func (m *multipartProvider) SendMultipart(ctx context.Context, to, subject, html, text string) (string, error) {
	args := m.Called(ctx, to, subject, html, text)
	return args.String(0), args.Error(1)
}

func TestDispatch_MultipartProviderGetsTextPart(t *testing.T) {
	p := &multipartProvider{mockProvider: mockProvider{name: "smtp"}}
	p.On("SendMultipart", mock.Anything, "a@b.com", "Your verification code", mock.Anything,
		mock.MatchedBy(func(text string) bool { return strings.Contains(text, "123456") })).
		Return("", nil)
	d := NewDispatcher(discardLogger(), Attempt{Channel: domain.ChannelPrimary, Provider: p})

	out := d.Dispatch(context.Background(), domain.KindVerification, "a@b.com", codeData)

	assert.True(t, out.Success)
	p.AssertExpectations(t)
	p.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
