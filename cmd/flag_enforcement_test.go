package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func checkRequiresUser(t *testing.T, cmd *cobra.Command, args []string) {
	t.Helper()
	viper.Reset()
	viper.Set("user", "")

	err := cmd.PreRunE(cmd, args)
	if err == nil {
		t.Errorf("%s: expected error when user is missing, got nil", cmd.Name())
	} else if err.Error() != "required flag(s) \"user\" not set" {
		t.Errorf("%s: expected 'required flag(s) \"user\" not set', got %v", cmd.Name(), err)
	}

	viper.Set("user", "testuser")
	if err := cmd.PreRunE(cmd, args); err != nil {
		t.Errorf("%s: expected nil when user is set, got %v", cmd.Name(), err)
	}
}

func TestImportRequiresUser(t *testing.T) {
	checkRequiresUser(t, importCmd, []string{"library.csv"})
}

func TestBuildGraphRequiresUser(t *testing.T) {
	checkRequiresUser(t, buildGraphCmd, []string{})
}

func TestProfileCreateRequiresUserWithoutPaths(t *testing.T) {
	checkRequiresUser(t, profileCreateCmd, []string{})

	viper.Reset()
	if err := profileCreateCmd.PreRunE(profileCreateCmd, []string{"library.csv"}); err != nil {
		t.Errorf("expected nil when paths are given, got %v", err)
	}
}

func TestUpdateRequiresCredentials(t *testing.T) {
	viper.Reset()
	viper.Set("user", "testuser")
	viper.Set("api_key", "key")

	err := updateCmd.PreRunE(updateCmd, []string{})
	if err == nil || err.Error() != "required flag(s) \"secret\" not set" {
		t.Errorf("Expected 'required flag(s) \"secret\" not set', got %v", err)
	}

	viper.Set("secret", "secret")
	if err := updateCmd.PreRunE(updateCmd, []string{}); err != nil {
		t.Errorf("Expected nil when all credentials are set, got %v", err)
	}
}
