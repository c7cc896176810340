package main

import (
	"fmt"
	"os"

	cp2k "github.com/rmera/gocp2k"
	"github.com/spf13/cobra"
)

func main() {
	//The tool keeps the flag spelling of the script it replaces, so
	//"-shifted yes" must keep working alongside "--shifted yes".
	for i, a := range os.Args {
		if a == "-shifted" {
			os.Args[i] = "--shifted"
		}
	}
	root := newRootCmd()
	root.AddCommand(newVirialCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var shifted string
	var stressSign string
	cmd := &cobra.Command{
		Use:   "gocp2k [pos.xyz frc.xyz file.cell [file.stress]]",
		Short: "Merge CP2K AIMD output files into an extended-XYZ trajectory",
		Long: `gocp2k merges the box information, atomic coordinates, atomic forces and
stress tensors output by a CP2K AIMD run into a single extended-XYZ file,
converting everything to eV/Å. With no arguments the inputs are discovered
in the working directory by the CP2K default naming patterns. With
--shifted yes, the total energies are additionally re-referenced onto a
per-species baseline fitted by least squares, and a second, shifted file is
written.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if n := len(args); n != 0 && n != 3 && n != 4 {
				return fmt.Errorf("expected 0, 3 or 4 positional arguments (pos, frc, cell, [stress]), got %d", n)
			}
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cp2k.Options{Shifted: shifted == "yes"}
			switch stressSign {
			case "negative":
				opts.StressScale = cp2k.Bar2EVA3
			case "positive":
				opts.StressScale = -cp2k.Bar2EVA3
			default:
				return fmt.Errorf("--stress-sign must be \"negative\" or \"positive\", got %q", stressSign)
			}
			switch len(args) {
			case 4:
				opts.StressFile = args[3]
				fallthrough
			case 3:
				opts.PosFile, opts.FrcFile, opts.CellFile = args[0], args[1], args[2]
			case 0:
				var err error
				opts.PosFile, opts.FrcFile, opts.CellFile, opts.StressFile, err = cp2k.GlobResolver(".")()
				if err != nil {
					return fmt.Errorf("could not find all required default input files: %v", err)
				}
			}
			_, _, err := cp2k.Merge(opts)
			if err != nil {
				return err
			}
			if opts.Shifted {
				fmt.Println("Done! 'shifted.xyz' file is generated.")
			}
			fmt.Println("Done! 'original-stress.extxyz' file is generated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&shifted, "shifted", "no", "\"yes\" to also write the energy-shifted trajectory")
	cmd.Flags().StringVar(&stressSign, "stress-sign", "negative", "sign convention of the bar→eV/Å³ stress conversion")
	return cmd
}

func newVirialCmd() *cobra.Command {
	var outdir string
	cmd := &cobra.Command{
		Use:   "virial <trajectory.extxyz>",
		Short: "Export per-frame virial tensors from a merged trajectory",
		Long: `virial reads a merged extended-XYZ trajectory and writes virial.raw,
stress.txt and volume.txt under the output directory, deriving each frame's
virial from its stress tensor and cell volume. Frames with a degenerate
(zero-volume) cell or without stress report the zero tensor.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			T, err := cp2k.ReadExtXYZ(args[0])
			if err != nil {
				return err
			}
			if err := T.WriteRaw(outdir); err != nil {
				return err
			}
			fmt.Printf("Wrote %d frames to %s\n", T.Len(), outdir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outdir, "outdir", "./data", "directory for the raw output files")
	return cmd
}
