package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/webscout/config"
	"github.com/hupe1980/webscout/runner"
)

// newRunner is replaced in tests.
var newRunner = runner.FromConfig

func newRunCmd(load func(*cobra.Command) (*config.Config, error)) *cobra.Command {
	var goal string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the brain agent until the goal is reached or abandoned",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			r, closeFn, err := newRunner(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := r.Run(ctx, goal)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run:       %s\n", res.RunID)
			fmt.Fprintf(out, "agents:    %d\n", res.Agents)
			fmt.Fprintf(out, "duration:  %s\n", res.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "saved to:  %s\n", res.SaveDir)
			for _, id := range res.Artifacts {
				fmt.Fprintf(out, "artifact:  %s\n", id)
			}
			fmt.Fprintf(out, "outcome:   %s\n", res.Outcome.Message)

			if !res.Outcome.Success {
				return errors.New("goal not reached")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&goal, "goal", "g", "", "what the agents should achieve")
	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().String("cdp-url", "", "connect to a running Chromium over CDP")
	cmd.Flags().Int("max-steps", 0, "step budget of the brain agent")
	_ = cmd.MarkFlagRequired("goal")

	return cmd
}
