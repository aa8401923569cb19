package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// WatchCmd returns the watch command.
func WatchCmd() *cobra.Command {
	var redisAddr string
	var channel string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream ticket assignment broadcasts from the Redis channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := redis.NewClient(&redis.Options{Addr: redisAddr})
			defer client.Close()

			sub := client.Subscribe(context.Background(), channel)
			defer sub.Close()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				// closing the subscription ends the channel range below
				_ = sub.Close()
			}()

			fmt.Printf("Watching %s (ctrl-c to stop)\n", channel)
			for msg := range sub.Channel() {
				printEvent(msg.Payload)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "127.0.0.1:6379", "Redis address")
	cmd.Flags().StringVar(&channel, "channel", "crm:ticket_events", "pub/sub channel to watch")
	return cmd
}

func printEvent(payload string) {
	var event struct {
		Type      string    `json:"type"`
		TicketID  string    `json:"ticket_id"`
		Timestamp time.Time `json:"timestamp"`
		Payload   struct {
			Ticket struct {
				Title           string  `json:"title"`
				Status          string  `json:"status"`
				AssignedStaffID *string `json:"assigned_staff_id"`
			} `json:"ticket"`
		} `json:"payload"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		fmt.Println(payload)
		return
	}

	assignee := "cleared"
	if event.Payload.Ticket.AssignedStaffID != nil {
		assignee = *event.Payload.Ticket.AssignedStaffID
	}
	fmt.Printf("%s %s %s  ticket=%s assignee=%s  %q\n",
		event.Timestamp.Local().Format("15:04:05"),
		color.CyanString(event.Type),
		event.Payload.Ticket.Status,
		event.TicketID,
		assignee,
		event.Payload.Ticket.Title)
}
