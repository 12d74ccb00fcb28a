package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/app"
	"github.com/yeisme/docvault/pkg/internal/storage/mq"
	"github.com/yeisme/docvault/pkg/queue"
)

var (
	eventsCmd = &cobra.Command{
		Use:     "events",
		Short:   "Domain event bus related commands",
		Aliases: []string{"mq"},
	}

	eventsDriversCmd = &cobra.Command{
		Use:     "drivers",
		Short:   "list all registered event bus drivers",
		Aliases: []string{"ls", "list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered event drivers:")

			for _, d := range mq.GetRegisteredDrivers() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+d)
			}
		},
	}

	eventsTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "list all event topics",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range queue.AllTopics() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	// 跨进程订阅只对 nats 驱动有意义.
	eventsTailCmd = &cobra.Command{
		Use:   "tail <topic>",
		Short: "print events published on a topic until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]
			if !slices.Contains(queue.AllTopics(), topic) {
				return fmt.Errorf("unknown topic %q, see `events topics`", topic)
			}

			return withCore(cmd.Context(), func(ctx context.Context, core *app.Core) error {
				if core.Bus == nil {
					return fmt.Errorf("events are disabled (events.enabled=false)")
				}

				ch, err := core.Bus.Subscribe(ctx, topic)
				if err != nil {
					return err
				}

				for msg := range ch {
					printf(cmd, "%s %s\n", msg.UUID, strings.TrimSpace(string(msg.Payload)))
					msg.Ack()
				}

				return nil
			})
		},
	}
)

// registerEventsCommands 注册事件总线相关命令.
func registerEventsCommands() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsDriversCmd)
	eventsCmd.AddCommand(eventsTopicsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
