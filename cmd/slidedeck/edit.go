package main

import (
	"os"

	"github.com/aretw0/slidedeck/internal/cli"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <patient-id>",
	Short: "Edit a patient's presentation from the terminal",
	Long: `Opens the patient's deck and reads editing commands from standard input.
Type 'help' for the command list. Changes are stored with 'save'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, b, logger, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		flags := cmd.Flags()
		headless, _ := flags.GetBool("headless")
		plain, _ := flags.GetBool("plain")
		width, _ := flags.GetInt("width")
		autoSave, _ := flags.GetBool("autosave")

		return cli.RunEdit(cmd.Context(), b, cli.EditOptions{
			PatientID: args[0],
			Headless:  headless,
			Plain:     plain,
			Width:     width,
			AutoSave:  autoSave,
			Input:     os.Stdin,
			Output:    cmd.OutOrStdout(),
		}, logger)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, strict IO)")
	editCmd.Flags().Bool("plain", false, "Render outlines without colours")
	editCmd.Flags().Int("width", 0, "Wrap rendered outlines at this width")
	editCmd.Flags().Bool("autosave", false, "Save unsaved slides when the session ends")
}
