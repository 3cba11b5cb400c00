package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/protex/pbpup/pkg/auth"
	"github.com/protex/pbpup/pkg/prompt"
)

// KernelAuthCmd stores and removes the Kernel API key.
type KernelAuthCmd struct {
	prompter prompt.Prompter
	save     func(key string) error
	load     func() (string, error)
	remove   func() error
}

func newKernelAuthCmd() KernelAuthCmd {
	return KernelAuthCmd{
		prompter: &prompt.Terminal{},
		save:     auth.SaveAPIKey,
		load:     auth.LoadAPIKey,
		remove:   auth.DeleteAPIKey,
	}
}

func (k KernelAuthCmd) Login(ctx context.Context, key string) error {
	if key == "" {
		var err error
		key, err = k.prompter.Ask(ctx, prompt.Question{
			Kind:     prompt.Secret,
			Message:  "Kernel API key:",
			Validate: prompt.NonEmpty("Please enter an API key"),
		})
		if err != nil {
			return err
		}
	}
	if err := k.save(key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	pterm.Success.Println("API key saved")
	pterm.Info.Println("Set PBPUP_BACKEND=kernel to run sessions in a Kernel cloud browser")
	return nil
}

func (k KernelAuthCmd) Logout(ctx context.Context) error {
	if _, err := k.load(); err != nil {
		if errors.Is(err, auth.ErrNoAPIKey) {
			pterm.Info.Println("No stored API key found - already logged out")
			return nil
		}
		return err
	}
	if err := k.remove(); err != nil {
		return fmt.Errorf("failed to clear stored API key: %w", err)
	}
	pterm.Success.Println("Removed stored API key")
	return nil
}

// --- Cobra wiring ---

var kernelCmd = &cobra.Command{
	Use:   "kernel",
	Short: "Manage the Kernel cloud browser backend",
	Long: `With PBPUP_BACKEND=kernel, sessions run in a Kernel cloud browser instead of
a local Chromium. These commands manage the API key used to create it.`,
}

var kernelLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a Kernel API key in the OS keychain",
	Args:  cobra.NoArgs,
	RunE:  runKernelLogin,
}

var kernelLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored Kernel API key",
	Args:  cobra.NoArgs,
	RunE:  runKernelLogout,
}

func init() {
	kernelCmd.AddCommand(kernelLoginCmd)
	kernelCmd.AddCommand(kernelLogoutCmd)

	kernelLoginCmd.Flags().String("api-key", "", "API key to store (prompted when omitted)")
}

func runKernelLogin(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("api-key")
	return newKernelAuthCmd().Login(cmd.Context(), key)
}

func runKernelLogout(cmd *cobra.Command, args []string) error {
	return newKernelAuthCmd().Logout(cmd.Context())
}
