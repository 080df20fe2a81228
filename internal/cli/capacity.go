package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var capacityInput string

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Show how many payload bytes an image can carry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wm, err := watermarker(false)
		if err != nil {
			return err
		}
		in, err := openInput(capacityInput)
		if err != nil {
			return err
		}
		defer in.Close()

		n, err := wm.Capacity(in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)
		return nil
	},
}

func init() {
	capacityCmd.Flags().StringVarP(&capacityInput, "input", "i", "", "cover image")
}
