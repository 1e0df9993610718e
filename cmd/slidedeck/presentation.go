package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/presentation/tui"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

var presentationCmd = &cobra.Command{
	Use:     "presentation",
	Aliases: []string{"deck"},
	Short:   "Inspect and remove stored presentations",
}

var presentationLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List patients with a stored presentation",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, b, _, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		patients, err := b.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing presentations: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(patients) == 0 {
			fmt.Fprintln(out, "No presentations found.")
			return nil
		}
		for _, p := range patients {
			fmt.Fprintln(out, p)
		}
		return nil
	},
}

var presentationShowCmd = &cobra.Command{
	Use:   "show <patient-id>",
	Short: "Print a stored presentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, b, _, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		patientID := args[0]
		doc, err := b.Store.Load(cmd.Context(), patientID)
		if err != nil {
			return fmt.Errorf("error loading presentation %q: %w", patientID, err)
		}

		out := cmd.OutOrStdout()
		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			fmt.Fprintln(out, litter.Options{HidePrivateFields: true, StripPackageNames: true}.Sdump(doc))
			return nil
		}

		md, err := outline(patientID, doc)
		if err != nil {
			return err
		}
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprint(out, md)
			return nil
		}
		plain, _ := cmd.Flags().GetBool("plain")
		width, _ := cmd.Flags().GetInt("width")
		render, err := tui.NewRenderer(width, plain)
		if err != nil {
			return err
		}
		rendered, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

var presentationRmCmd = &cobra.Command{
	Use:   "rm <patient-id>...",
	Short: "Remove one or more presentations and their images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, b, _, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		out := cmd.OutOrStdout()
		var errs []error
		for _, patientID := range args {
			if err := b.Store.Delete(cmd.Context(), patientID); err != nil {
				errs = append(errs, fmt.Errorf("error removing %q: %w", patientID, err))
				continue
			}
			fmt.Fprintf(out, "Removed presentation '%s'\n", patientID)
		}
		return errors.Join(errs...)
	},
}

// outline renders a stored document the way an editing session would show it.
func outline(patientID string, doc domain.Document) (string, error) {
	ed, err := slidedeck.New(patientID)
	if err != nil {
		return "", err
	}
	ed.Reset(doc)
	return slidedeck.FullOutline(ed.State()), nil
}

func init() {
	rootCmd.AddCommand(presentationCmd)
	presentationCmd.AddCommand(presentationLsCmd, presentationShowCmd, presentationRmCmd)

	presentationShowCmd.Flags().Bool("dump", false, "Dump the stored document structure")
	presentationShowCmd.Flags().Bool("raw", false, "Print the markdown outline without rendering")
	presentationShowCmd.Flags().Bool("plain", false, "Render without colours")
	presentationShowCmd.Flags().Int("width", 0, "Wrap the rendered outline at this width")
}
