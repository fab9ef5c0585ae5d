package main

import (
	"github.com/spf13/cobra"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/api"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gcw",
		Short:   "GrabCAD Workbench client for cloning and pulling CAD projects",
		Version: version,
	}

	cmd.PersistentFlags().String("dir", ".", "Project directory")
	cmd.PersistentFlags().String("server", api.DefaultBaseURL, "Workbench server URL")

	cmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newInitCmd(),
		newCloneCmd(),
		newPullCmd(),
		newPushCmd(),
		newStatusCmd(),
		newDoctorCmd(),
	)

	return cmd
}
