// Package cli implements the stegguard command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stegguard/internal/config"
	"stegguard/internal/pixels"
	"stegguard/internal/watermarking"

	_ "stegguard/internal/watermarking/lsbimage"
)

var scheme string

// RootCmd is the stegguard command.
var RootCmd = &cobra.Command{
	Use:   "stegguard",
	Short: "Hide and recover payloads in the least-significant bits of images",
	Long: `stegguard hides a byte payload in bit 0 of every RGB sample of a PNG or BMP
image and recovers it later. Output images are always written losslessly.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&scheme, "scheme", "s", "",
		"watermarking algorithm (see 'stegguard algorithms'; default $STEG_DEFAULT_ALGORITHM or lsb-sentinel)")

	RootCmd.AddCommand(embedCmd, extractCmd, capacityCmd, algorithmsCmd)
}

// loadConfig applies the environment to flags left at their defaults.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if scheme == "" {
		scheme = cfg.DefaultAlgorithm
	}
	pixels.MaxPixels = cfg.MaxImagePixels
	return nil
}

func watermarker(fit bool) (watermarking.Watermarker, error) {
	wm, err := watermarking.GetWatermarker(scheme)
	if err != nil {
		return nil, err
	}
	if fit {
		f, ok := wm.(watermarking.Fitter)
		if !ok {
			return nil, fmt.Errorf("%s cannot enlarge covers", scheme)
		}
		wm = f.Fitted()
	}
	return wm, nil
}

func openInput(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("an input image is required (-i)")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List the available watermarking algorithms",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, a := range watermarking.ListSupportedAlgorithms() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", a.Name, a.Description)
		}
	},
}
