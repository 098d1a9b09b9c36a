package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var name, email, password string
	command := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			admin, err := application.Services.Auth.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: %s <%s>\n", admin.ID, admin.Email)
			return nil
		},
	}
	command.Flags().StringVar(&name, "name", "", "admin display name")
	command.Flags().StringVar(&email, "email", "", "admin email")
	command.Flags().StringVar(&password, "password", "", "admin password (at least 8 characters)")
	_ = command.MarkFlagRequired("name")
	_ = command.MarkFlagRequired("email")
	_ = command.MarkFlagRequired("password")
	return command
}

func verifyVotesCmd() *cobra.Command {
	var repair bool
	command := &cobra.Command{
		Use:   "verify-votes",
		Short: "Compare stored vote tallies with vote records",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			drifts, err := application.Services.Vote.VerifyTallies(ctx, repair)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(drifts) == 0 {
				fmt.Fprintln(out, "all vote tallies match vote records")
				return nil
			}
			for _, d := range drifts {
				fmt.Fprintf(out, "%s stored=%d/%d counted=%d/%d\n",
					d.ResourceID, d.Stored.Upvotes, d.Stored.Downvotes, d.Counted.Upvotes, d.Counted.Downvotes)
			}
			if repair {
				fmt.Fprintf(out, "%d resources repaired\n", len(drifts))
				return nil
			}
			return fmt.Errorf("%d resources have drifting vote tallies", len(drifts))
		},
	}
	command.Flags().BoolVar(&repair, "repair", false, "overwrite drifting tallies with counted values")
	return command
}
