package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/lukman83/shopgenie/internal/webhook"
	"github.com/spf13/cobra"
)

var serveWebhookCmd = &cobra.Command{
	Use:   "serve-webhook",
	Short: "Start the chat webhook server",
	Long:  "Serve POST /api/v1/messages so a messaging platform can forward user messages.",
	RunE:  runServeWebhook,
}

func init() {
	serveWebhookCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rankingFlags(serveWebhookCmd)
	rootCmd.AddCommand(serveWebhookCmd)
}

func runServeWebhook(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := webhook.New(a.service, a.tracker,
		webhook.WithAPIKey(cfg.APIKey),
		webhook.WithLogger(logger),
	)
	return srv.Start(ctx, listenAddr(cmd))
}
