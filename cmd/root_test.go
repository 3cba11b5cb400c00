package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestVersionString(t *testing.T) {
	assert.Equal(t, "dev", versionString(Metadata{Version: "dev"}))
	assert.Equal(t, "1.2.0 (abc123) go1.25.0 2026-01-02",
		versionString(Metadata{Version: "1.2.0", Commit: "abc123", GoVersion: "go1.25.0", Date: "2026-01-02"}))
}

func TestCommandTree(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want *cobra.Command
	}{
		{name: "profiles list", path: []string{"profiles", "list"}, want: profilesListCmd},
		{name: "configs alias", path: []string{"configs", "delete"}, want: profilesDeleteCmd},
		{name: "kernel login", path: []string{"kernel", "login"}, want: kernelLoginCmd},
		{name: "kernel logout", path: []string{"kernel", "logout"}, want: kernelLogoutCmd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := rootCmd.Find(tt.path)
			assert.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestRootRejectsArgs(t *testing.T) {
	assert.Error(t, rootCmd.Args(rootCmd, []string{"forumA"}))
	assert.NoError(t, rootCmd.Args(rootCmd, nil))
}
