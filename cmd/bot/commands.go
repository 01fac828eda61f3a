package main

import (
	"context"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/central-university-dev/go-tgbot/internal/api/webhook"
	"github.com/central-university-dev/go-tgbot/internal/bot/clients/kafka"
	bothandler "github.com/central-university-dev/go-tgbot/internal/bot/handler"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
)

func pollCmd() *cobra.Command {
	var keepWebhook bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Получать обновления через long polling (getUpdates)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a.startBackground(ctx)
			a.setupCommands(ctx)

			if !keepWebhook {
				if _, err := a.client.DeleteWebhook(ctx, false); err != nil {
					a.logger.Warn("Не удалось удалить webhook", "error", err)
				}
			}

			poller := telegram.NewPoller(a.client, a.handler(), telegram.OptionsFromConfig(a.cfg), a.logger)
			watchSignals(ctx, poller.Shutdown(), cancel, a.logger)

			if err := poller.Run(ctx); err != nil {
				a.logger.Error("Long polling завершился с ошибкой",
					"error", err,
					"offset", poller.Offset(),
				)

				return err
			}

			a.logger.Info("Бот остановлен", "offset", poller.Offset())

			return nil
		},
	}

	cmd.Flags().BoolVar(&keepWebhook, "keep-webhook", false, "не удалять webhook перед запуском")

	return cmd
}

func webhookCmd() *cobra.Command {
	var unregister bool

	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Принимать обновления через webhook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a.startBackground(ctx)
			a.setupCommands(ctx)

			// serveCtx завершается первым сигналом: http.Server дожидается
			// активных запросов, то есть обработчиков текущих обновлений.
			serveCtx, stopServe := context.WithCancel(ctx)
			defer stopServe()

			shutdown := telegram.NewShutdown()
			watchSignals(ctx, shutdown, cancel, a.logger)

			go func() {
				select {
				case <-shutdown.Done():
					stopServe()
				case <-serveCtx.Done():
				}
			}()

			server := webhook.NewServer(serveCtx, webhook.SettingsFromConfig(a.cfg), a.handler(), a.client, a.logger)

			if err := server.Register(ctx); err != nil {
				a.logger.Error("Ошибка при регистрации webhook", "error", err)
				return err
			}

			if err := server.Start(serveCtx); err != nil {
				return err
			}

			if unregister {
				if err := server.Unregister(ctx); err != nil {
					a.logger.Error("Ошибка при удалении webhook", "error", err)
					return err
				}
			}

			a.logger.Info("Бот остановлен")

			return nil
		},
	}

	cmd.Flags().BoolVar(&unregister, "unregister", false, "удалить webhook при остановке")

	return cmd
}

func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Обрабатывать обновления, опубликованные в Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a.startBackground(ctx)

			consumer := kafka.NewConsumer(
				a.cfg.KafkaBrokerList(),
				a.cfg.KafkaGroupID,
				a.cfg.KafkaUpdatesTopic,
				a.cfg.KafkaDLQTopic,
				bothandler.NewBotHandler(a.client, a.files, a.logger),
				a.logger,
			)
			a.closers = append(a.closers, consumer.Close)

			shutdown := telegram.NewShutdown()
			watchSignals(ctx, shutdown, cancel, a.logger)

			return consumer.Run(ctx, shutdown)
		},
	}
}

func downloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <file_id>",
		Short: "Скачать файл по file_id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			body, file, err := a.files.Open(cmd.Context(), args[0])
			if err != nil {
				a.logger.Error("Ошибка при скачивании файла",
					"error", err,
					"file_id", args[0],
				)

				return err
			}
			defer body.Close()

			var dst io.Writer = cmd.OutOrStdout()

			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "создание файла")
				}
				defer f.Close()

				dst = f
			}

			n, err := io.Copy(dst, body)
			if err != nil {
				return errors.Wrap(err, "запись файла")
			}

			a.logger.Info("Файл скачан",
				"file_id", file.FileID,
				"path", file.FilePath,
				"bytes", n,
			)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "куда сохранить файл (по умолчанию stdout)")

	return cmd
}
