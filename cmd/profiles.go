package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/protex/pbpup/pkg/config"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/util"
)

const buildCommandWidth = 40

type ProfilesDeleteInput struct {
	Name        string
	SkipConfirm bool
}

// ProfilesCmd manages saved configurations independent of cobra.
type ProfilesCmd struct {
	store profile.Store
	// confirm asks a yes/no question. Replaced in tests.
	confirm func(question string) bool
}

func (p ProfilesCmd) List(ctx context.Context) error {
	names := p.store.ListProfiles()
	if len(names) == 0 {
		pterm.Info.Println("No configurations found")
		return nil
	}
	rows := pterm.TableData{{"Name", "Forum", "Username", "User ID", "Plugin", "Build Command"}}
	for _, name := range names {
		prof := profile.Open(p.store, name)
		rows = append(rows, []string{
			name,
			util.OrDash(prof.ForumURL()),
			util.OrDash(prof.Username()),
			util.OrDash(prof.AccountID()),
			util.OrDash(prof.PluginName()),
			util.OrDash(util.Truncate(prof.BuildCommand(), buildCommandWidth)),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func (p ProfilesCmd) Delete(ctx context.Context, in ProfilesDeleteInput) error {
	if !lo.Contains(p.store.ListProfiles(), in.Name) {
		pterm.Error.Printf("Configuration '%s' not found\n", in.Name)
		return nil
	}
	if !in.SkipConfirm {
		ask := p.confirm
		if ask == nil {
			ask = confirmInteractive
		}
		if !ask(fmt.Sprintf("Are you sure you want to delete configuration '%s'?", in.Name)) {
			pterm.Info.Println("Deletion cancelled")
			return nil
		}
	}
	if err := p.store.Delete(in.Name); err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}
	pterm.Success.Printf("Deleted configuration: %s\n", in.Name)
	return nil
}

func confirmInteractive(question string) bool {
	ok, _ := pterm.DefaultInteractiveConfirm.WithDefaultText(question).Show()
	return ok
}

// --- Cobra wiring ---

var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"configs"},
	Short:   "Manage saved configurations",
	Long:    "Commands for inspecting and removing the per-forum configurations pbpup remembers",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved configurations",
	Args:  cobra.NoArgs,
	RunE:  runProfilesList,
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesDelete,
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)

	profilesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
}

func openStore() (*profile.FileStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return profile.NewFileStore(cfg.ProfilesPath())
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	p := ProfilesCmd{store: store}
	return p.List(cmd.Context())
}

func runProfilesDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	skip, _ := cmd.Flags().GetBool("yes")
	p := ProfilesCmd{store: store}
	return p.Delete(cmd.Context(), ProfilesDeleteInput{Name: args[0], SkipConfirm: skip})
}
