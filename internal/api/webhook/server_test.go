package webhook_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-tgbot/internal/api/webhook"
	"github.com/central-university-dev/go-tgbot/internal/botapi"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
	"github.com/central-university-dev/go-tgbot/internal/telegram/mocks"
)

type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) SetWebhook(ctx context.Context, call botapi.SetWebhook) (bool, error) {
	args := m.Called(ctx, call)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistrar) DeleteWebhook(ctx context.Context, dropPending bool) (bool, error) {
	args := m.Called(ctx, dropPending)
	return args.Bool(0), args.Error(1)
}

var testSettings = webhook.Settings{
	Port:              8080,
	Path:              "/telegram/webhook",
	PublicURL:         "https://bot.example.com/telegram/webhook",
	Secret:            "s3cr3t",
	RateLimitRequests: 100,
	RateLimitWindow:   time.Second,
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, router http.Handler, secret, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, testSettings.Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if secret != "" {
		req.Header.Set(webhook.SecretHeader, secret)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestWebhook_DeliversUpdate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := mocks.NewHandler(t)
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(u tgbotapi.Update) bool {
		return u.UpdateID == 42 && u.Message != nil && u.Message.Text == "/start"
	})).Return(nil).Once()

	router := webhook.NewRouter(ctx, testSettings, handler, newLogger())

	rec := post(t, router, "s3cr3t", `{"update_id":42,"message":{"message_id":1,"date":1,"chat":{"id":5,"type":"private"},"text":"/start"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_RejectsWrongSecret(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := mocks.NewHandler(t)
	router := webhook.NewRouter(ctx, testSettings, handler, newLogger())

	assert.Equal(t, http.StatusUnauthorized, post(t, router, "wrong", `{"update_id":1}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, router, "", `{"update_id":1}`).Code)
	handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestWebhook_MalformedBody(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := mocks.NewHandler(t)
	router := webhook.NewRouter(ctx, testSettings, handler, newLogger())

	assert.Equal(t, http.StatusBadRequest, post(t, router, "s3cr3t", `{"update_id":`).Code)
}

func TestWebhook_HandlerErrorStillAcknowledged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := mocks.NewHandler(t)
	handler.On("Handle", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	router := webhook.NewRouter(ctx, testSettings, handler, newLogger())

	assert.Equal(t, http.StatusOK, post(t, router, "s3cr3t", `{"update_id":7}`).Code)
}

func TestWebhook_OnlyPost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := webhook.NewRouter(ctx, testSettings, mocks.NewHandler(t), newLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, testSettings.Path, http.NoBody))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Register(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registrar := new(MockRegistrar)
	registrar.On("SetWebhook", mock.Anything, botapi.SetWebhook{
		URL:         testSettings.PublicURL,
		SecretToken: testSettings.Secret,
	}).Return(true, nil).Once()

	server := webhook.NewServer(ctx, testSettings, mocks.NewHandler(t), registrar, newLogger())

	require.NoError(t, server.Register(ctx))
	registrar.AssertExpectations(t)

	noURL := testSettings
	noURL.PublicURL = ""

	require.Error(t, webhook.NewServer(ctx, noURL, mocks.NewHandler(t), registrar, newLogger()).Register(ctx))
}

func TestServer_ServeWaitsForInFlightUpdates(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})

	var finished atomic.Bool

	handler := telegram.HandlerFunc(func(_ context.Context, _ tgbotapi.Update) error {
		close(started)
		time.Sleep(300 * time.Millisecond)
		finished.Store(true)

		return nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := webhook.NewServer(ctx, testSettings, handler, new(MockRegistrar), newLogger())

	served := make(chan error, 1)

	go func() {
		served <- server.Serve(ctx, ln)
	}()

	go func() {
		req, _ := http.NewRequest(http.MethodPost, "http://"+ln.Addr().String()+testSettings.Path,
			strings.NewReader(`{"update_id":1}`))
		req.Header.Set(webhook.SecretHeader, testSettings.Secret)

		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Обновление не дошло до обработчика")
	}

	// Act
	cancel()

	// Assert
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Сервер не остановился")
	}

	assert.True(t, finished.Load(), "Serve должен дождаться обработки текущего обновления")
}
