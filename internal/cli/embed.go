package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stegguard/internal/lsb"
)

var embedOpts struct {
	input   string
	output  string
	message string
	file    string
	fit     bool
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Hide a message or file in an image",
	Example: `  stegguard embed -i cover.png -o marked.png -m "very secret token"
  stegguard embed -i cover.bmp -f notes.txt --scheme lsb-framed --fit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := embedPayload()
		if err != nil {
			return err
		}
		wm, err := watermarker(embedOpts.fit)
		if err != nil {
			return err
		}

		in, err := openInput(embedOpts.input)
		if err != nil {
			return err
		}
		defer in.Close()

		marked, err := wm.Embed(in, payload)
		if err != nil {
			return fmt.Errorf("embedding: %w", err)
		}

		output := embedOpts.output
		if output == "" {
			output = defaultOutput(embedOpts.input)
		}
		out, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		if _, err := io.Copy(out, marked); err != nil {
			out.Close()
			return fmt.Errorf("writing output: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "embedded %d bytes with %s into %s\n", len(payload), wm.Name(), output)
		return nil
	},
}

func init() {
	f := embedCmd.Flags()
	f.StringVarP(&embedOpts.input, "input", "i", "", "cover image")
	f.StringVarP(&embedOpts.output, "output", "o", "", "watermarked image (default watermarked_<input>)")
	f.StringVarP(&embedOpts.message, "message", "m", "", "text payload")
	f.StringVarP(&embedOpts.file, "file", "f", "", "read the payload from a file")
	f.BoolVar(&embedOpts.fit, "fit", false, "upscale the cover when it is too small for the payload")
}

func embedPayload() ([]byte, error) {
	switch {
	case embedOpts.message != "" && embedOpts.file != "":
		return nil, errors.New("use either --message or --file, not both")
	case embedOpts.file != "":
		data, err := os.ReadFile(embedOpts.file)
		if err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
		return data, nil
	default:
		return lsb.TextPayload(embedOpts.message), nil
	}
}

// defaultOutput names the watermarked copy of input. BMP stays BMP, every
// other format becomes PNG.
func defaultOutput(input string) string {
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if !strings.EqualFold(ext, ".bmp") {
		ext = ".png"
	}
	return filepath.Join(dir, "watermarked_"+name+ext)
}
