package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/propman-cli/internal/application"
	"github.com/spf13/cobra"
)

func newResourceCmd(app *app, resource application.Resource) *cobra.Command {
	noun := strings.ToLower(strings.ReplaceAll(resource.Entity, "_", " "))

	cmd := &cobra.Command{
		Use:   resource.Path,
		Short: fmt.Sprintf("Manage %ss", noun),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: fmt.Sprintf("List %ss", noun),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				body, err := app.client.Query(cmd.Context(), resource.ListKey(), resource.ListRequest())
				if err != nil {
					return userFacing(err)
				}
				return writeBody(cmd.OutOrStdout(), body)
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: fmt.Sprintf("Show one %s", noun),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				body, err := app.client.Query(cmd.Context(), resource.ItemKey(args[0]), resource.ItemRequest(args[0]))
				if err != nil {
					return userFacing(err)
				}
				return writeBody(cmd.OutOrStdout(), body)
			},
		},
		&cobra.Command{
			Use:   "create field=value...",
			Short: fmt.Sprintf("Create a %s", noun),
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fields, err := application.ParseFields(args)
				if err != nil {
					return err
				}
				return runMutation(cmd, app, resource.Create(fields), "Created "+noun+".")
			},
		},
		&cobra.Command{
			Use:   "update ID field=value...",
			Short: fmt.Sprintf("Change fields of a %s", noun),
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				patch, err := application.ParseFields(args[1:])
				if err != nil {
					return err
				}
				return runMutation(cmd, app, resource.Update(args[0], patch), "Updated "+noun+" "+args[0]+".")
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: fmt.Sprintf("Delete a %s", noun),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMutation(cmd, app, resource.Delete(args[0]), "Deleted "+noun+" "+args[0]+".")
			},
		},
	)

	if resource == application.Residents {
		for _, active := range []bool{true, false} {
			active := active
			verb := "deactivate"
			if active {
				verb = "activate"
			}
			cmd.AddCommand(&cobra.Command{
				Use:   verb + " ID",
				Short: fmt.Sprintf("Mark a resident as %sd", verb),
				Args:  cobra.ExactArgs(1),
				RunE: func(cmd *cobra.Command, args []string) error {
					return runMutation(cmd, app, application.SetResidentActive(args[0], active), "Resident "+args[0]+" "+verb+"d.")
				},
			})
		}
	}

	return cmd
}

// runMutation applies m optimistically. A deferred mutation is reported as
// queued rather than as an error.
func runMutation(cmd *cobra.Command, app *app, m application.Mutation, done string) error {
	result, err := app.client.RunOptimisticMutation(cmd.Context(), m)
	if err != nil {
		return userFacing(err)
	}

	if result.Deferred() {
		app.notifier.Queued(*result.Queued)
		return nil
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), done); err != nil {
		return err
	}
	return writeBody(cmd.OutOrStdout(), result.Response.Body)
}
