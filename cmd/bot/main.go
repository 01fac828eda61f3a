package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tgbot",
		Short:         "Telegram бот на Bot API: long polling, webhook и скачивание файлов",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(pollCmd(), webhookCmd(), consumeCmd(), downloadCmd())

	return root
}
