package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/sportscorex/internal/app"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/usecase"
	"github.com/spf13/cobra"
)

type appLoader func(ctx context.Context, verbose bool) (*app.App, error)

type scoresOutput struct {
	Source string          `json:"source"`
	Cached bool            `json:"cached"`
	Data   json.RawMessage `json:"data"`
}

func newRootCmd(load appLoader, out io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "scorexctl",
		Short:         "Query and operate the sports score aggregator",
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log provider calls to stderr")

	withApp := func(fn func(cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd.Context(), verbose)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd, a)
		}
	}

	root.AddCommand(
		newLiveCmd(withApp),
		newStandingsCmd(withApp),
		newProvidersCmd(withApp),
		newPurgeCmd(withApp),
	)
	return root
}

type appRunner func(fn func(cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error

func newLiveCmd(withApp appRunner) *cobra.Command {
	var sport, league string

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Print matches currently in progress",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			result, err := a.Scores.LiveScores(cmd.Context(), sport, league)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scoresOutput{
				Source: string(result.Source),
				Cached: result.Cached,
				Data:   result.Payload,
			})
		}),
	}
	cmd.Flags().StringVar(&sport, "sport", usecase.DefaultSport, "sport to query")
	cmd.Flags().StringVar(&league, "league", "", "provider league id")
	return cmd
}

func newStandingsCmd(withApp appRunner) *cobra.Command {
	var league, season string

	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Print a league table",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			result, err := a.Scores.Standings(cmd.Context(), league, season)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scoresOutput{
				Source: string(result.Source),
				Cached: result.Cached,
				Data:   result.Payload,
			})
		}),
	}
	cmd.Flags().StringVar(&league, "league", "", "provider league id")
	cmd.Flags().StringVar(&season, "season", "", "season, defaults to the current year")
	_ = cmd.MarkFlagRequired("league")
	return cmd
}

func newProvidersCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List enabled providers in priority order",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			return writeJSON(cmd.OutOrStdout(), a.Scores.Registry().Catalog())
		}),
	}
}

func newPurgeCmd(withApp appRunner) *cobra.Command {
	var operation string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop cached results for one operation or all of them",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			op := scores.Operation(strings.ToLower(strings.TrimSpace(operation)))
			if err := a.Scores.Purge(cmd.Context(), op); err != nil {
				return err
			}
			if op == "" {
				op = "all"
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"operation": string(op)})
		}),
	}
	cmd.Flags().StringVar(&operation, "operation", "", "live or standings; empty purges everything")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
