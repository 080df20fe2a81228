package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stegguard/internal/lsb"
)

var extractOpts struct {
	input  string
	output string
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Recover the payload hidden in an image",
	Example: `  stegguard extract -i marked.png
  stegguard extract -i marked.png -o payload.bin --scheme lsb-framed`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wm, err := watermarker(false)
		if err != nil {
			return err
		}
		in, err := openInput(extractOpts.input)
		if err != nil {
			return err
		}
		defer in.Close()

		payload, err := wm.Extract(in)
		if lsb.IsKind(err, lsb.KindSentinelNotFound) || lsb.IsKind(err, lsb.KindCorruptHeader) {
			return fmt.Errorf("no recoverable payload: %w", err)
		}
		if err != nil {
			return fmt.Errorf("extracting: %w", err)
		}

		if extractOpts.output != "" {
			if err := os.WriteFile(extractOpts.output, payload, 0o600); err != nil {
				return fmt.Errorf("writing payload: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recovered %d bytes into %s\n", len(payload), extractOpts.output)
			return nil
		}

		text, err := lsb.Text(payload)
		if err != nil {
			return fmt.Errorf("%w (use -o to save raw bytes)", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractOpts.input, "input", "i", "", "watermarked image")
	f.StringVarP(&extractOpts.output, "output", "o", "", "write the raw payload to a file instead of printing it")
}
