package telegram_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-tgbot/internal/botapi"
	"github.com/central-university-dev/go-tgbot/internal/common/httputil"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
	"github.com/central-university-dev/go-tgbot/internal/telegram/mocks"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func updates(ids ...int) []tgbotapi.Update {
	result := make([]tgbotapi.Update, 0, len(ids))

	for _, id := range ids {
		result = append(result, tgbotapi.Update{
			UpdateID: id,
			Message:  &tgbotapi.Message{MessageID: id, Chat: &tgbotapi.Chat{ID: 1}},
		})
	}

	return result
}

func request(offset int) botapi.GetUpdates {
	return botapi.GetUpdates{Offset: offset, Limit: 100, Timeout: 30}
}

type recorder struct {
	mu  sync.Mutex
	ids []int
}

func (r *recorder) handler(fail map[int]bool) telegram.HandlerFunc {
	return func(_ context.Context, update tgbotapi.Update) error {
		r.mu.Lock()
		r.ids = append(r.ids, update.UpdateID)
		r.mu.Unlock()

		if fail[update.UpdateID] {
			return errors.New("обработчик не справился")
		}

		return nil
	}
}

func (r *recorder) handled() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.ids...)
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestPoller_OffsetAdvancesPastBatch(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	rec := &recorder{}
	poller := telegram.NewPoller(client, rec.handler(map[int]bool{5: true, 9: true}), telegram.Options{Timeout: 30}, newLogger())

	client.On("GetUpdates", mock.Anything, request(0)).Return(updates(9, 5, 6), nil).Once()
	client.On("GetUpdates", mock.Anything, request(10)).
		Run(func(_ mock.Arguments) { poller.Stop() }).
		Return([]tgbotapi.Update{}, nil).Once()

	// Act
	err := poller.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 9}, rec.handled(), "Обновления должны обрабатываться по возрастанию update_id")
	assert.Equal(t, 10, poller.Offset())
}

func TestPoller_EmptyBatchKeepsOffset(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	rec := &recorder{}
	poller := telegram.NewPoller(client, rec.handler(nil), telegram.Options{Timeout: 30, Offset: 7}, newLogger())

	client.On("GetUpdates", mock.Anything, request(7)).Return([]tgbotapi.Update{}, nil).Once()
	client.On("GetUpdates", mock.Anything, request(7)).
		Run(func(_ mock.Arguments) { poller.Stop() }).
		Return(nil, nil).Once()

	// Act
	err := poller.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, rec.handled())
	assert.Equal(t, 7, poller.Offset())
}

func TestPoller_HonorsRetryAfter(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	sleeps := &sleepRecorder{}
	poller := telegram.NewPoller(client, (&recorder{}).handler(nil), telegram.Options{Timeout: 30}, newLogger())
	poller.SetSleepFunc(sleeps.sleep)

	client.On("GetUpdates", mock.Anything, request(0)).
		Return(nil, &apierrors.TelegramError{Method: "getUpdates", ErrorCode: 429, RetryAfter: 3}).Once()
	client.On("GetUpdates", mock.Anything, request(0)).
		Run(func(_ mock.Arguments) { poller.Stop() }).
		Return([]tgbotapi.Update{}, nil).Once()

	// Act
	err := poller.Run(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, sleeps.delays, 1)
	assert.GreaterOrEqual(t, sleeps.delays[0], 3*time.Second)
}

func TestPoller_TransientErrorsBackOff(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	sleeps := &sleepRecorder{}
	poller := telegram.NewPoller(client, (&recorder{}).handler(nil),
		telegram.Options{Timeout: 30, MaxBackoff: 5 * time.Second}, newLogger())
	poller.SetSleepFunc(sleeps.sleep)

	client.On("GetUpdates", mock.Anything, request(0)).
		Return(nil, &apierrors.TransportError{Method: "getUpdates", Cause: io.ErrUnexpectedEOF}).Once()
	client.On("GetUpdates", mock.Anything, request(0)).
		Return(nil, &apierrors.DecodeError{Method: "getUpdates", StatusCode: 502}).Once()
	client.On("GetUpdates", mock.Anything, request(0)).
		Run(func(_ mock.Arguments) { poller.Stop() }).
		Return(updates(1), nil).Once()

	// Act
	err := poller.Run(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, sleeps.delays, 2)

	for _, d := range sleeps.delays {
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 5*time.Second)
	}

	assert.Equal(t, 2, poller.Offset())
}

func TestPoller_FatalErrorStops(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	poller := telegram.NewPoller(client, (&recorder{}).handler(nil), telegram.Options{Timeout: 30}, newLogger())

	client.On("GetUpdates", mock.Anything, request(0)).
		Return(nil, &apierrors.TelegramError{Method: "getUpdates", ErrorCode: 401, Description: "Unauthorized"}).Once()

	// Act
	err := poller.Run(context.Background())

	// Assert
	var tgErr *apierrors.TelegramError

	require.ErrorAs(t, err, &tgErr)
	assert.Equal(t, 401, tgErr.ErrorCode)
}

func TestPoller_ShutdownMidDispatch(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)

	started := make(chan struct{})
	release := make(chan struct{})
	rec := &recorder{}

	handler := telegram.HandlerFunc(func(ctx context.Context, update tgbotapi.Update) error {
		if update.UpdateID == 1 {
			close(started)
			<-release
		}

		return rec.handler(nil)(ctx, update)
	})

	poller := telegram.NewPoller(client, handler, telegram.Options{Timeout: 30}, newLogger())

	client.On("GetUpdates", mock.Anything, request(0)).Return(updates(1, 2), nil).Once()

	done := make(chan error, 1)

	// Act
	go func() {
		done <- poller.Run(context.Background())
	}()

	<-started

	shutdown := poller.Shutdown()
	shutdown.Signal()
	shutdown.Signal()

	close(release)

	// Assert
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Поллер не остановился после сигнала")
	}

	assert.Equal(t, []int{1, 2}, rec.handled(), "Начатая пачка должна быть обработана полностью")
	assert.Equal(t, 3, poller.Offset())
	client.AssertNumberOfCalls(t, "GetUpdates", 1)
}

func TestPoller_HandlerPanicDoesNotStopBatch(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	handler := mocks.NewHandler(t)
	poller := telegram.NewPoller(client, handler, telegram.Options{Timeout: 30}, newLogger())

	handler.On("Handle", mock.Anything, mock.MatchedBy(func(u tgbotapi.Update) bool { return u.UpdateID == 1 })).
		Run(func(_ mock.Arguments) { panic("boom") }).
		Return(nil).Once()
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(u tgbotapi.Update) bool { return u.UpdateID == 2 })).
		Return(nil).Once()

	client.On("GetUpdates", mock.Anything, request(0)).Return(updates(1, 2), nil).Once()
	client.On("GetUpdates", mock.Anything, request(3)).
		Run(func(_ mock.Arguments) { poller.Stop() }).
		Return(nil, nil).Once()

	// Act
	err := poller.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, poller.Offset())
}

func TestPoller_ContextCancel(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	poller := telegram.NewPoller(client, (&recorder{}).handler(nil), telegram.Options{Timeout: 30}, newLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.On("GetUpdates", mock.Anything, request(0)).
		Run(func(_ mock.Arguments) { cancel() }).
		Return(nil, &apierrors.TransportError{Method: "getUpdates", Cause: context.Canceled}).Once()

	// Act
	err := poller.Run(ctx)

	// Assert
	require.ErrorIs(t, err, context.Canceled)
}

func TestPoller_StopInterruptsBackoff(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	poller := telegram.NewPoller(client, (&recorder{}).handler(nil),
		telegram.Options{Timeout: 30, MaxBackoff: 10 * time.Second}, newLogger())

	client.On("GetUpdates", mock.Anything, request(0)).
		Return(nil, &apierrors.TelegramError{Method: "getUpdates", ErrorCode: 429, RetryAfter: 60}).Once()

	go func() {
		time.Sleep(20 * time.Millisecond)
		poller.Stop()
	}()

	// Act
	start := time.Now()
	err := poller.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPoller_RejectsSecondRun(t *testing.T) {
	// Arrange
	client := mocks.NewUpdatesClient(t)
	poller := telegram.NewPoller(client, (&recorder{}).handler(nil), telegram.Options{Timeout: 30}, newLogger())

	entered := make(chan struct{})
	release := make(chan struct{})

	client.On("GetUpdates", mock.Anything, request(0)).
		Run(func(_ mock.Arguments) {
			close(entered)
			<-release
			poller.Stop()
		}).
		Return(nil, nil).Once()

	done := make(chan error, 1)

	go func() {
		done <- poller.Run(context.Background())
	}()

	<-entered

	// Act
	err := poller.Run(context.Background())

	close(release)

	// Assert
	require.ErrorIs(t, err, telegram.ErrAlreadyRunning)
	require.NoError(t, <-done)
}

func TestPoller_RetryAfterFromBotAPI(t *testing.T) {
	// Arrange
	var (
		calls  atomic.Int32
		poller *telegram.Poller
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`))

			return
		}

		poller.Stop()
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer server.Close()

	client, err := botapi.NewClient(botapi.Settings{
		Host:           server.URL,
		Token:          "123456:secret-token",
		RequestTimeout: 5 * time.Second,
		Transport: httputil.TransportSettings{
			CBSlidingWindowSize:        100,
			CBMinimumRequiredCalls:     100,
			CBFailureRateThreshold:     100,
			CBPermittedCallsInHalfOpen: 10,
			CBWaitDurationInOpenState:  10 * time.Second,
		},
	}, nil)
	require.NoError(t, err)

	sleeps := &sleepRecorder{}
	poller = telegram.NewPoller(client, (&recorder{}).handler(nil), telegram.Options{Timeout: 0}, newLogger())
	poller.SetSleepFunc(sleeps.sleep)

	// Act
	err = poller.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, sleeps.delays, 1)
	assert.GreaterOrEqual(t, sleeps.delays[0], 3*time.Second, "Задержка не может быть меньше retry_after")
}
