package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mindchat/mindchat/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage backend profiles",
	Long:  `Manage profiles pointing at different chat service deployments.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Config: %s\n", cfg.Path())
		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range cfg.ProfileNames() {
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			profile := cfg.Profiles[name]
			fmt.Printf("  %s%s\n", name, marker)
			fmt.Printf("    Base URL: %s\n", profile.GetBaseURL())
			fmt.Println()
		}
		return nil
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		profileName := cfg.ActiveProfile
		if len(args) > 0 {
			profileName = args[0]
		}
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			return errors.Errorf("profile '%s' does not exist", profileName)
		}

		fmt.Printf("Profile: %s\n", profileName)
		fmt.Printf("Base URL: %s\n", profile.GetBaseURL())
		fmt.Printf("History field: %s\n", profile.GetHistoryField())
		fmt.Printf("Rollback policy: %s\n", profile.GetRollbackPolicy())
		if profile.ProbeEnabled() {
			fmt.Printf("Readiness probe: every %s (timeout %s, retry on error: %t, max backoff %s)\n",
				profile.GetProbeInterval(), profile.GetProbeTimeout(), profile.RetryOnError(), profile.GetProbeMaxBackoff())
		} else {
			fmt.Println("Readiness probe: disabled")
		}
		fmt.Printf("Request timeout: %s\n", profile.GetRequestTimeout())
		fmt.Printf("Greeting: %s\n", profile.GetGreeting())
		fmt.Println("Support resources:")
		for _, r := range profile.GetSupportResources() {
			fmt.Printf("  - %s\n", r)
		}
		if err := profile.Validate(); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
		return nil
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Prompt{
				Label:    "Profile name",
				Validate: requireNonEmpty,
			}
			profileName, err = prompt.Run()
			if err != nil {
				return errors.Wrap(err, "prompt failed")
			}
		}

		if _, exists := cfg.Profiles[profileName]; exists {
			return errors.Errorf("profile '%s' already exists", profileName)
		}

		profile := config.Profile{}

		baseURLPrompt := promptui.Prompt{
			Label:    "Base URL",
			Default:  config.DefaultBaseURL,
			Validate: validateBaseURL,
		}
		profile.BaseURL, err = baseURLPrompt.Run()
		if err != nil {
			return errors.Wrap(err, "prompt failed")
		}

		fieldSelect := promptui.Select{
			Label: "History field sent to /api/chat",
			Items: []string{config.HistoryFieldMessages, config.HistoryFieldChatHistory},
		}
		_, profile.HistoryField, err = fieldSelect.Run()
		if err != nil {
			return errors.Wrap(err, "selection failed")
		}

		policySelect := promptui.Select{
			Label: "When a message fails",
			Items: []string{
				config.RollbackKeep + " (keep it and show a notice)",
				config.RollbackRemove + " (remove it and show an alert)",
			},
		}
		idx, _, err := policySelect.Run()
		if err != nil {
			return errors.Wrap(err, "selection failed")
		}
		profile.RollbackPolicy = []string{config.RollbackKeep, config.RollbackRemove}[idx]

		// Add profile to config
		cfg.Profiles[profileName] = profile

		if err := cfg.Save(); err != nil {
			return errors.Wrap(err, "failed to save config")
		}

		fmt.Printf("Profile '%s' added successfully!\n", profileName)
		return nil
	},
}

var removeProfileCmd = &cobra.Command{
	Use:     "remove [profile-name]",
	Aliases: []string{"delete"},
	Short:   "Remove a profile",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Select{
				Label: "Select profile to remove",
				Items: cfg.ProfileNames(),
			}
			_, profileName, err = prompt.Run()
			if err != nil {
				return errors.Wrap(err, "selection failed")
			}
		}

		if _, exists := cfg.Profiles[profileName]; !exists {
			return errors.Errorf("profile '%s' does not exist", profileName)
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Remove profile '%s'", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Removal cancelled")
			return nil
		}

		delete(cfg.Profiles, profileName)
		if cfg.ActiveProfile == profileName {
			// Fall back to another profile, or a fresh default when none is left
			if names := cfg.ProfileNames(); len(names) > 0 {
				cfg.ActiveProfile = names[0]
			} else {
				cfg.ActiveProfile = "default"
				cfg.Profiles["default"] = config.Profile{BaseURL: config.DefaultBaseURL}
			}
		}

		if err := cfg.Save(); err != nil {
			return errors.Wrap(err, "failed to save config")
		}

		fmt.Printf("Profile '%s' removed successfully!\n", profileName)
		return nil
	},
}

func requireNonEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

func validateBaseURL(input string) error {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return errors.New("base URL must start with http:// or https://")
	}
	return nil
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(removeProfileCmd)
}
