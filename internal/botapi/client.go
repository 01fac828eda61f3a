package botapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/central-university-dev/go-tgbot/internal/common/httputil"
	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
	"github.com/central-university-dev/go-tgbot/internal/config"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

const (
	DefaultHost = config.DefaultAPIHost

	tracerName      = "github.com/central-university-dev/go-tgbot/internal/botapi"
	maxErrorBody    = 4 << 10
	redactedToken   = "<token>"
	downloadFileOp  = "downloadFile"
	serviceNameHTTP = "telegram_bot_api"
)

type Settings struct {
	Host           string
	Token          string
	RequestTimeout time.Duration
	Transport      httputil.TransportSettings
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Host:           cfg.TelegramAPIHost,
		Token:          cfg.TelegramBotToken,
		RequestTimeout: cfg.RequestTimeout,
		Transport:      httputil.SettingsFromConfig(cfg),
	}
}

// Call - типизированный вызов Bot API.
type Call interface {
	Payload() *Payload
}

// longPollCall позволяет вызову продлить таймаут запроса на время ожидания на сервере.
type longPollCall interface {
	LongPollTimeout() time.Duration
}

// Client неизменяем после создания и безопасен для конкурентного использования.
type Client struct {
	http           *resty.Client
	host           string
	token          string
	requestTimeout time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

func NewClient(settings Settings, logger *slog.Logger) (*Client, error) {
	if err := validateToken(settings.Token); err != nil {
		return nil, err
	}

	host, err := normalizeHost(settings.Host)
	if err != nil {
		return nil, err
	}

	httpClient, err := httputil.CreateResilientHTTPClient(settings.Transport, logger, serviceNameHTTP)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient.SetLogger(httputil.NewRestyLogger(logger, settings.Token))

	return &Client{
		http:           httpClient,
		host:           host,
		token:          settings.Token,
		requestTimeout: settings.RequestTimeout,
		logger:         logger,
		tracer:         otel.Tracer(tracerName),
	}, nil
}

func validateToken(token string) error {
	switch {
	case strings.TrimSpace(token) == "":
		return &apierrors.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "токен не задан"}
	case strings.ContainsAny(token, " \t\r\n/"):
		return &apierrors.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "токен содержит недопустимые символы"}
	default:
		return nil
	}
}

func normalizeHost(host string) (string, error) {
	if host == "" {
		return DefaultHost, nil
	}

	host = strings.TrimRight(host, "/")

	parsed, err := url.Parse(host)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &apierrors.ConfigError{Field: "TELEGRAM_API_HOST", Message: "некорректный адрес API"}
	}

	return host, nil
}

func (c *Client) Host() string {
	return c.host
}

// FileURL возвращает адрес скачивания. Ссылка содержит токен, ее нельзя логировать.
func (c *Client) FileURL(remotePath string) string {
	return c.host + "/file/bot" + c.token + "/" + remotePath
}

// Execute выполняет вызов и декодирует поле result в result. При result == nil
// ответ проверяется, но не декодируется.
func (c *Client) Execute(ctx context.Context, call Call, result any) error {
	payload := call.Payload()

	ctx, span := c.tracer.Start(ctx, "botapi."+payload.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("telegram.method", payload.Path),
			attribute.String("telegram.body", payload.Kind().String()),
		),
	)
	defer span.End()

	timeout := c.requestTimeout
	if lp, ok := call.(longPollCall); ok && timeout > 0 {
		timeout += lp.LongPollTimeout()
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.execute(ctx, payload, result)

	metrics.RecordAPIRequest(payload.Path, outcome(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		c.logger.Debug("Ошибка вызова Bot API",
			"method", payload.Path,
			"error", err,
		)
	}

	return err
}

func (c *Client) execute(ctx context.Context, payload *Payload, result any) error {
	body, contentType, err := payload.Encode()
	if err != nil {
		return err
	}

	req := c.http.R().SetContext(ctx)

	if contentType != "" {
		req.SetHeader("Content-Type", contentType).SetBody(body)
	}

	resp, err := req.Execute(payload.Method, payload.BuildURL(c.host, c.token))
	if err != nil {
		return &apierrors.TransportError{Method: payload.Path, Cause: c.redact(err)}
	}

	return decodeResponse(payload.Path, resp.StatusCode(), resp.Body(), result)
}

func decodeResponse(method string, statusCode int, body []byte, result any) error {
	env, err := decodeEnvelope(body)
	if err != nil {
		return &apierrors.DecodeError{Method: method, StatusCode: statusCode, Body: truncate(body), Cause: err}
	}

	if !env.OK {
		code := env.ErrorCode
		if code == 0 {
			code = statusCode
		}

		return &apierrors.TelegramError{
			Method:          method,
			Description:     env.Description,
			ErrorCode:       code,
			RetryAfter:      env.RetryAfter,
			MigrateToChatID: env.MigrateToChatID,
		}
	}

	if result == nil {
		return nil
	}

	if len(env.Result) == 0 {
		return &apierrors.DecodeError{Method: method, StatusCode: statusCode, Body: truncate(body), Cause: errMissingResult}
	}

	if err := json.Unmarshal(env.Result, result); err != nil {
		return &apierrors.DecodeError{Method: method, StatusCode: statusCode, Body: truncate(body), Cause: err}
	}

	return nil
}

// Do - типизированная обертка над Execute.
func Do[R any](ctx context.Context, c *Client, call Call) (R, error) {
	var result R

	err := c.Execute(ctx, call, &result)

	return result, err
}

// DownloadFile возвращает поток содержимого файла. Тело не буферизуется,
// вызывающий код обязан закрыть поток.
func (c *Client) DownloadFile(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	ctx, span := c.tracer.Start(ctx, "botapi."+downloadFileOp,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("telegram.file_path", remotePath)),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(c.FileURL(remotePath))
	if err != nil {
		err = &apierrors.TransportError{Method: downloadFileOp, Cause: c.redact(err)}

		metrics.RecordFileDownload(outcome(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()

		return nil, err
	}

	body := resp.RawBody()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		defer body.Close()

		text, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))

		err := &apierrors.DownloadError{
			Path:       remotePath,
			StatusCode: resp.StatusCode(),
			Text:       strings.TrimSpace(string(text)),
		}

		metrics.RecordFileDownload("http_error")
		span.SetStatus(codes.Error, err.Error())
		span.End()

		return nil, err
	}

	metrics.RecordFileDownload("ok")

	return &countingReader{rc: body, span: span}, nil
}

// redact убирает токен из текста сетевой ошибки.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{
			Op:  urlErr.Op,
			URL: strings.ReplaceAll(urlErr.URL, c.token, redactedToken),
			Err: urlErr.Err,
		}
	}

	return err
}

func outcome(err error) string {
	var (
		payloadErr   *apierrors.PayloadError
		transportErr *apierrors.TransportError
		decodeErr    *apierrors.DecodeError
		tgErr        *apierrors.TelegramError
	)

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &payloadErr):
		return "payload_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.As(err, &tgErr):
		return "telegram_error"
	default:
		return "error"
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	return string(body)
}

// countingReader завершает span загрузки только при Close, когда поток
// уже прочитан вызывающим кодом.
type countingReader struct {
	rc   io.ReadCloser
	span trace.Span
	read int64
	once sync.Once
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	metrics.AddDownloadedBytes(n)
	r.read += int64(n)

	if err != nil && !errors.Is(err, io.EOF) {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}

	return n, err
}

func (r *countingReader) Close() error {
	err := r.rc.Close()

	r.once.Do(func() {
		r.span.SetAttributes(attribute.Int64("telegram.file_bytes", r.read))
		r.span.End()
	})

	return err
}
