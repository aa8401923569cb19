package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SeedCmd returns the seed command.
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo admin/staff/resident accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient()

			var users []struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Email string `json:"email"`
				Role  string `json:"role"`
			}
			if err := client.do("POST", "/api/auth/seed-demo-users", nil, &users); err != nil {
				return fmt.Errorf("seed demo users: %w", err)
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s %d demo accounts (password: password123)\n", green("Seeded"), len(users))
			for _, u := range users {
				fmt.Printf("  %-10s %-24s %s\n", u.Role, u.Email, u.ID)
			}
			return nil
		},
	}
}
