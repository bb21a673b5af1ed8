package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mindchat/mindchat/internal/core"
	"github.com/mindchat/mindchat/internal/models"
	"github.com/mindchat/mindchat/ui/components"
)

const askWidth = 80

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message and print the reply",
	Long: `Send a single message to the chat service without starting the
interactive UI. The reply is printed as text, followed by the support
resources when the service flags the message as a crisis.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		profile := cfg.Current()
		if err := profile.Validate(); err != nil {
			return errors.Wrapf(err, "profile %q", cfg.ActiveProfile)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag+profile.GetRequestTimeout())
		defer cancel()

		client := newBackendClient(profile)
		opts := core.SessionOptions{
			Greeting:       profile.GetGreeting(),
			RollbackPolicy: profile.GetRollbackPolicy(),
		}
		if profile.ProbeEnabled() {
			probe := newProbe(profile, client)
			defer probe.Stop()

			waitCtx, waitCancel := context.WithTimeout(ctx, timeoutFlag)
			snap := awaitReadiness(waitCtx, probe, profile, waitFlag)
			waitCancel()
			if snap.State != models.ReadinessReady {
				return errors.Errorf("chat service is not ready (%s): %s", components.StatusLabel(snap), snap.Message)
			}
			opts.Gate = probe
		}

		session := core.NewChatSession(client, opts)
		if !session.Submit(ctx, strings.Join(args, " ")) {
			return errors.New("message was not sent")
		}

		snap := session.Snapshot()
		if snap.Alert != "" {
			return errors.New(snap.Alert)
		}
		last := snap.Turns[len(snap.Turns)-1]
		if last.Notice {
			return errors.New(last.Content)
		}

		fmt.Println(components.RenderMarkdown(last.Content, askWidth))
		if snap.Crisis {
			fmt.Println(components.RenderSupportPanel(profile.GetSupportResources(), askWidth))
		}
		return nil
	},
}
