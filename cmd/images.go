package cmd

import (
	"fmt"

	"github.com/chukul/ec2provision/internal"
	"github.com/spf13/cobra"
)

var imagesCmd = &cobra.Command{
	Use:   "images [image-id...]",
	Short: "Describe AMIs by id (default: the configured image)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := args
		if len(ids) == 0 {
			ids = []string{appCfg.ImageID}
		}

		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}

		images, err := internal.ListImages(cmd.Context(), s, ids...)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			logger.Warn("no image matched", "ids", ids)
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-22s %-10s %-16s %s", "IMAGE", "PLATFORM", "CREATED", "NAME")))
		for _, img := range images {
			fmt.Fprintf(out, "%-22s %-10s %s %s\n", img.ID, img.Platform,
				dimStyle.Render(fmt.Sprintf("%-16s", internal.ImageAge(img))), img.Name)
		}
		return nil
	},
}

func init() {
	imagesCmd.Flags().String("image-id", internal.DefaultImageID, "Image looked up when no ids are given")
	rootCmd.AddCommand(imagesCmd)
}
