package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/ui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session on the terminal",
	Long:  "Read one message per line from stdin and answer it. /help shows the formats, /quit exits.",
	RunE:  runChat,
}

func init() {
	rankingFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, a.service.Welcome())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(text) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/start":
			fmt.Fprintln(out, a.service.Welcome())
			continue
		case "/help":
			fmt.Fprintln(out, a.service.Help())
			continue
		}

		spin := ui.NewSpinner()
		spin.Start("Searching...")
		reply := a.service.HandleMessage(platform.WithProgress(ctx, spin.Update), text)
		spin.Stop()

		if err := printReply(out, reply, "cards"); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
