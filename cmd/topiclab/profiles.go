package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// redacted replaces stored passwords in `profiles show` output.
const redacted = "********"

func newProfilesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect saved connection profiles",
	}
	cmd.AddCommand(
		newProfilesListCmd(root),
		newProfilesShowCmd(root),
		newProfilesDeleteAllCmd(root),
	)
	return cmd
}

func newProfilesListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved connections (* marks the last used)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := openStore(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer store.Close()

			data, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading profiles: %w", err)
			}
			if len(data.Connections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved connections")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tNAME\tBROKER\tBUTTONS\tSUBSCRIPTIONS")
			for _, c := range data.Connections {
				mark := ""
				if c.ID == data.LastConnectionID {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s:%d\t%d\t%d\n",
					mark, c.ID, c.Name, c.BrokerURL, c.Port, len(c.Buttons), len(c.Subscriptions))
			}
			return w.Flush()
		},
	}
}

func newProfilesShowCmd(root *rootOptions) *cobra.Command {
	var showPassword bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one connection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer store.Close()

			data, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading profiles: %w", err)
			}
			conn, err := data.Connection(args[0])
			if err != nil {
				return err
			}
			if conn.Password != "" && !showPassword {
				conn.Password = redacted
			}

			out, err := json.MarshalIndent(conn, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPassword, "show-password", false, "print the stored broker password")
	return cmd
}

func newProfilesDeleteAllCmd(root *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every saved connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete profiles without --yes")
			}

			store, _, err := openStore(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context()); err != nil {
				return fmt.Errorf("deleting profiles: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all saved connections deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}
