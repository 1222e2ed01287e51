package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/hawkra/hawkra/internal/docker"
	"github.com/hawkra/hawkra/internal/prompt"
	"github.com/hawkra/hawkra/internal/uninstall"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove Hawkra from this host",
	Long: `Remove the Hawkra deployment from this host: containers, volumes,
images, the hosts file entry, and the install directory.

This permanently deletes the database and file storage. To confirm, the
command asks you to type the phrase "` + uninstall.ConfirmationPhrase + `"
on an interactive terminal; there is no flag to bypass the confirmation.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		u := uninstall.New(cfg, newRuntime(), docker.NewCompose(cfg.ComposeFile()))
		u.KeepImages, _ = cmd.Flags().GetBool("keep-images")
		u.KeepHostsEntry, _ = cmd.Flags().GetBool("keep-hosts-entry")

		sum, err := u.Run(cmd.Context())
		switch {
		case errors.Is(err, prompt.ErrCancelled):
			logger.Info("Uninstall cancelled; nothing was removed")
			return
		case errors.Is(err, uninstall.ErrNothingToRemove):
			logger.Info("No Hawkra installation found on this host; nothing to remove")
			return
		case err != nil:
			logger.Error("Uninstall failed: %v", err)
			os.Exit(1)
		}

		sum.Report(logger)
	},
}
