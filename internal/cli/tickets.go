package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type ticketView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	SLADeadline     *time.Time `json:"sla_deadline"`
	AssignedStaffID *string    `json:"assigned_staff_id"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TicketsCmd returns the tickets command group.
func TicketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Inspect tickets visible to the authenticated account",
	}
	cmd.AddCommand(ticketsListCmd())
	return cmd
}

func ticketsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the caller's ticket view, newest first",
		Long: `Lists tickets the way the service scopes them: admins see everything,
staff their assigned tickets, residents their own. Requires CRM_TOKEN from a
prior login.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient()

			var tickets []ticketView
			if err := client.do("GET", "/api/tickets", nil, &tickets); err != nil {
				return fmt.Errorf("list tickets: %w", err)
			}
			if len(tickets) == 0 {
				fmt.Println("No tickets visible to this account.")
				return nil
			}

			for _, t := range tickets {
				deadline := "-"
				if t.SLADeadline != nil {
					deadline = t.SLADeadline.Local().Format(time.RFC3339)
				}
				assignee := "unassigned"
				if t.AssignedStaffID != nil {
					assignee = *t.AssignedStaffID
				}
				fmt.Printf("%s  %-12s %-8s due %-25s %s  (%s)\n",
					t.ID, statusColor(t.Status), t.Priority, deadline, t.Title, assignee)
			}
			return nil
		},
	}
}

func statusColor(status string) string {
	switch status {
	case "OVERDUE":
		return color.RedString("%-12s", status)
	case "RESOLVED":
		return color.GreenString("%-12s", status)
	case "IN_PROGRESS":
		return color.YellowString("%-12s", status)
	default:
		return fmt.Sprintf("%-12s", status)
	}
}
