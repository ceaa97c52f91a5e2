package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bnema/propman-cli/internal/application"
	"github.com/bnema/propman-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newRequestCmd(app *app) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "request METHOD PATH [field=value...]",
		Short: "Send an authenticated request to the API",
		Long:  "Send an authenticated request to the API and print the response. Fields become the JSON body; values that parse as JSON keep their type.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.Request{
				Method: strings.ToUpper(strings.TrimSpace(args[0])),
				Path:   args[1],
			}

			if len(args) > 2 {
				fields, err := application.ParseFields(args[2:])
				if err != nil {
					return err
				}
				req.Body = fields
			}

			if len(params) > 0 {
				req.Params = url.Values{}
				for _, param := range params {
					name, value, ok := strings.Cut(param, "=")
					if !ok || strings.TrimSpace(name) == "" {
						return fmt.Errorf("invalid param %q: expected key=value", param)
					}
					req.Params.Add(strings.TrimSpace(name), value)
				}
			}

			resp, err := app.client.SendAuthenticated(cmd.Context(), req)
			if err != nil {
				return userFacing(err)
			}
			return writeBody(cmd.OutOrStdout(), resp.Body)
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "Query parameter as key=value (repeatable)")

	return cmd
}
