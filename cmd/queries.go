package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/querydesk/internal/queries"
)

func newSubmitCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "submit [query]",
		Short: "Submit a query; reads stdin when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				raw = string(data)
			}
			res, err := appInstance.Service().Submit(cmd.Context(), raw, email)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "submitter email")
	return cmd
}

func newMatchesCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "matches <value>",
		Short: "List other users who submitted the same query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := appInstance.Service().FindMatches(cmd.Context(), strings.Join(args, " "), email)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "caller email, excluded from results")
	return cmd
}

func newFlagCmd() *cobra.Command {
	var (
		email string
		req   queries.FlagRequest
	)
	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Flag the caller's task for a target sentence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := appInstance.Service().Flag(cmd.Context(), req, email)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "caller email")
	cmd.Flags().StringVar(&req.TargetSentence, "target", "", "target sentence")
	cmd.Flags().StringVar(&req.TaskID, "task-id", "", "task id to record")
	cmd.Flags().StringVar(&req.Flag, "flag", "", "flag value to record")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newRatingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rating <target sentence>",
		Short: "Look up the QA rating for a target sentence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := appInstance.Service().LookupRating(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
