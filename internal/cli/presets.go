package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// presetFile is the YAML layout used by import and export. Bone rotations
// are Euler angles in radians.
type presetFile struct {
	Name  string                `yaml:"name"`
	Bones map[string][3]float64 `yaml:"bones"`
}

// NewPresetsCommand creates the presets command group.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage stored pose presets",
	}
	cmd.AddCommand(newPresetsListCommand(rootOpts))
	cmd.AddCommand(newPresetsExportCommand(rootOpts))
	cmd.AddCommand(newPresetsImportCommand(rootOpts))
	cmd.AddCommand(newPresetsDeleteCommand(rootOpts))
	return cmd
}

func newPresetsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			presets, err := st.Presets().List()
			if err != nil {
				return err
			}
			if presets == nil {
				presets = []*store.Preset{}
			}
			return writeOutput(cmd.OutOrStdout(), opts.Format, presets, func(tw *tabwriter.Writer) {
				row(tw, "NAME", "BONES", "UPDATED")
				for _, p := range presets {
					row(tw, p.Name, len(p.Bones), formatTime(p.UpdatedAt))
				}
			})
		},
	}
}

func newPresetsExportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <name>",
		Short: "Print a preset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := st.Presets().GetByName(args[0])
			if err != nil {
				return fmt.Errorf("preset %s: %w", args[0], err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(presetFile{Name: p.Name, Bones: p.Bones})
		},
	}
}

func newPresetsImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or replace a preset from a YAML file",
		Long: `Create or replace a preset from a YAML file:

  name: wave
  bones:
    rightUpperArm: [0, 0, 1.05]
    rightLowerArm: [0, 0.78, 0]

Rotations are Euler angles in radians. Unknown bone names are rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := readPresetFile(args[0])
			if err != nil {
				return err
			}

			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			p := &store.Preset{Name: pf.Name, Bones: pf.Bones}
			err = st.Presets().Update(p)
			if errors.Is(err, store.ErrNotFound) {
				err = st.Presets().Create(p)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported preset %s (%d bones)\n", p.Name, len(p.Bones))
			return nil
		},
	}
}

func newPresetsDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Presets().Delete(args[0]); err != nil {
				return fmt.Errorf("preset %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted preset %s\n", args[0])
			return nil
		},
	}
}

func readPresetFile(path string) (presetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return presetFile{}, err
	}
	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return presetFile{}, fmt.Errorf("%s: %w", path, err)
	}
	if pf.Name == "" {
		return presetFile{}, fmt.Errorf("%s: preset name is required", path)
	}

	known := make(map[string]bool)
	for _, n := range humanoid.Names() {
		known[n] = true
	}
	var unknown []string
	for name := range pf.Bones {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return presetFile{}, fmt.Errorf("%s: unknown bones %v", path, unknown)
	}
	return pf, nil
}
