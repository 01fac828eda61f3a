package files

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

type FileClient interface {
	GetFile(ctx context.Context, fileID string) (tgbotapi.File, error)
	DownloadFile(ctx context.Context, remotePath string) (io.ReadCloser, error)
}

var ErrNoFilePath = errors.New("Telegram не вернул путь к файлу")

// Service скачивает файлы по file_id. Пути из getFile кэшируются: ссылка на
// скачивание живет около часа, поэтому TTL кэша должен быть меньше.
type Service struct {
	client FileClient
	cache  Cache
	logger *slog.Logger
}

func NewService(client FileClient, cache Cache, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// Open возвращает поток содержимого файла. Вызывающий код закрывает поток.
func (s *Service) Open(ctx context.Context, fileID string) (io.ReadCloser, tgbotapi.File, error) {
	file, cached, err := s.resolve(ctx, fileID)
	if err != nil {
		return nil, tgbotapi.File{}, err
	}

	body, err := s.client.DownloadFile(ctx, file.FilePath)
	if err == nil {
		return body, file, nil
	}

	if !cached || !isExpiredPath(err) {
		return nil, tgbotapi.File{}, err
	}

	s.logger.Info("Путь к файлу устарел, повторный запрос getFile",
		"file_id", fileID,
	)

	if delErr := s.cache.Delete(ctx, fileID); delErr != nil {
		s.logger.Warn("Не удалось удалить запись из кэша",
			"error", delErr,
			"file_id", fileID,
		)
	}

	file, err = s.fetch(ctx, fileID)
	if err != nil {
		return nil, tgbotapi.File{}, err
	}

	body, err = s.client.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return nil, tgbotapi.File{}, err
	}

	return body, file, nil
}

func (s *Service) resolve(ctx context.Context, fileID string) (tgbotapi.File, bool, error) {
	cached, err := s.cache.Get(ctx, fileID)
	if err != nil {
		s.logger.Warn("Кэш файлов недоступен, запрос к Bot API",
			"error", err,
			"file_id", fileID,
		)
	}

	if cached != nil && cached.FilePath != "" {
		metrics.RecordFileCache(true)
		return *cached, true, nil
	}

	metrics.RecordFileCache(false)

	file, err := s.fetch(ctx, fileID)

	return file, false, err
}

func (s *Service) fetch(ctx context.Context, fileID string) (tgbotapi.File, error) {
	file, err := s.client.GetFile(ctx, fileID)
	if err != nil {
		return tgbotapi.File{}, errors.Wrap(err, "getFile")
	}

	if file.FilePath == "" {
		return tgbotapi.File{}, ErrNoFilePath
	}

	if err := s.cache.Set(ctx, file); err != nil {
		s.logger.Warn("Не удалось сохранить файл в кэш",
			"error", err,
			"file_id", fileID,
		)
	}

	return file, nil
}

func isExpiredPath(err error) bool {
	var downloadErr *apierrors.DownloadError
	if !errors.As(err, &downloadErr) {
		return false
	}

	return downloadErr.StatusCode == http.StatusNotFound || downloadErr.StatusCode == http.StatusBadRequest
}
