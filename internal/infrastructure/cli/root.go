package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/notchd/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "notchd",
		Short: "notchd - notch companion core",
		Long:  "notchd runs the notch utility's metrics sampler and chat orchestrator without the panel UI.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand(container))
	root.AddCommand(newSampleCommand(container))
	root.AddCommand(newAskCommand(container))
	root.AddCommand(newChatCommand(container))
	root.AddCommand(newConfigCommand(container))
	return root, nil
}

func newRunCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sampling loop in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			container.Sampler.Publisher = NewGaugeWriter(cmd.OutOrStdout())
			if err := container.Sampler.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			container.Sampler.Stop()
			return nil
		},
	}
}

func newSampleCommand(container *app.Container) *cobra.Command {
	var detail bool
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Take one metric sample and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			sample := container.Sampler.SampleOnce(cmd.Context())
			renderSample(cmd.OutOrStdout(), sample)
			if detail {
				renderCapacityDetail(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&detail, "detail", false, "Include memory and disk capacity totals")
	return cmd
}
