package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lantern/internal/notify"
)

func newWatchNotificationsCommand() *cobra.Command {
	var (
		email    string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch-notifications",
		Short: "Print a user's unread notification count whenever it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			d := notify.NewDispatcher(e.store(), e.log)
			watchUnread(ctx, cmd.OutOrStdout(), d, strings.ToLower(email), interval)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "recipient to watch")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "poll interval")
	return cmd
}

// watchUnread blocks until ctx is done, writing one line per count change.
func watchUnread(ctx context.Context, out io.Writer, d *notify.Dispatcher, email string, interval time.Duration) {
	p := notify.NewPoller(d, email, interval, func(n int) {
		fmt.Fprintf(out, "%s unread: %d\n", time.Now().Format(time.RFC3339), n)
	})
	p.Run(ctx)
}
