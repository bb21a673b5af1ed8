package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mindchat/mindchat/internal/backend"
	"github.com/mindchat/mindchat/internal/config"
	"github.com/mindchat/mindchat/internal/core"
	"github.com/mindchat/mindchat/internal/models"
	"github.com/mindchat/mindchat/ui/components"
)

var (
	waitFlag    bool
	timeoutFlag time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the chat service is ready",
	Long: `Probe the chat service health endpoint once and print its state.
With --wait, keep probing until the service is ready or the timeout expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		profile := cfg.Current()
		if err := profile.Validate(); err != nil {
			return errors.Wrapf(err, "profile %q", cfg.ActiveProfile)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
		defer cancel()

		probe := newProbe(profile, newBackendClient(profile))
		defer probe.Stop()

		snap := awaitReadiness(ctx, probe, profile, waitFlag)
		fmt.Printf("%s: %s\n", profile.GetBaseURL(), components.StatusLabel(snap))
		if snap.Message != "" {
			fmt.Println(snap.Message)
		}
		if snap.State != models.ReadinessReady {
			return errors.Errorf("chat service is not ready (%s)", snap.State)
		}
		return nil
	},
}

func newBackendClient(profile config.Profile) *backend.Client {
	return backend.NewClient(backend.Options{
		BaseURL:        profile.GetBaseURL(),
		HistoryField:   profile.GetHistoryField(),
		RequestTimeout: profile.GetRequestTimeout(),
		ProbeTimeout:   profile.GetProbeTimeout(),
	})
}

func newProbe(profile config.Profile, checker core.HealthChecker) *core.ReadinessProbe {
	return core.NewReadinessProbe(checker, core.ProbeOptions{
		Interval:     profile.GetProbeInterval(),
		MaxBackoff:   profile.GetProbeMaxBackoff(),
		RetryOnError: profile.RetryOnError(),
		Jitter:       0.2,
	})
}

// awaitReadiness runs one probe and, when wait is set, follows the probe's
// own retry schedule until it reports ready, gives up, or ctx expires.
func awaitReadiness(ctx context.Context, probe *core.ReadinessProbe, profile config.Profile, wait bool) models.ReadinessSnapshot {
	changed := make(chan struct{}, 1)
	probe.OnChange(func(models.ReadinessSnapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	probe.Probe(ctx)
	for {
		snap := probe.Snapshot()
		switch {
		case snap.State == models.ReadinessReady, !wait:
			return snap
		case snap.State == models.ReadinessError && !profile.RetryOnError():
			return snap
		}
		if snap.State == models.ReadinessLoading {
			fmt.Printf("%s...\n", components.StatusLabel(snap))
		}
		select {
		case <-ctx.Done():
			return probe.Snapshot()
		case <-changed:
		}
	}
}

func init() {
	for _, c := range []*cobra.Command{healthCmd, askCmd} {
		c.Flags().BoolVarP(&waitFlag, "wait", "w", false, "wait until the chat service is ready")
		c.Flags().DurationVar(&timeoutFlag, "timeout", 2*time.Minute, "how long to wait for the chat service")
	}
}
