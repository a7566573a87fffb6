package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/notchd/internal/app"
	"github.com/doeshing/notchd/internal/domain"
)

func newAskCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [text]",
		Short: "Send one chat turn and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := container.ChatService.Submit(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				// The failure is already in the transcript; surface it here too.
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
			return nil
		},
	}
}

func newChatCommand(container *app.Container) *cobra.Command {
	var limit int
	var clear bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Show the recent chat transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Transcript == nil {
				return fmt.Errorf("transcript store unavailable")
			}
			if clear {
				if err := container.Transcript.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Transcript cleared")
				return nil
			}
			messages, err := container.Transcript.Recent(limit)
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transcript entries")
				return nil
			}
			for _, msg := range messages {
				marker := ""
				if msg.IsError {
					marker = " [error]"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-9s%s %s\n",
					msg.Timestamp.Format("2006-01-02 15:04"),
					msg.Role,
					marker,
					msg.Text,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultTranscriptDisplayLimit, "Number of entries to show")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete all transcript entries")
	return cmd
}

func newConfigCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect notchd configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.ConfigLoader.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := container.ConfigLoader.Load(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(raw))
			return nil
		},
	})

	return cmd
}
