package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matteworks/matte-server/internal/config"
	"github.com/matteworks/matte-server/internal/segmentation"
	"github.com/matteworks/matte-server/internal/services/modeldownloader"
	"github.com/matteworks/matte-server/pkg/logger"
)

var Cmd = &cobra.Command{
	Use:   "download [models...]",
	Short: "Download model weights ahead of time",
	Long:  "Downloads the named model variants into the models directory. With no arguments, downloads every known variant.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustGetConfig()

		log, err := logger.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		var variants []segmentation.ModelVariant
		if len(args) == 0 {
			variants = segmentation.Variants()
		} else {
			for _, name := range args {
				variant := segmentation.ModelVariant(name)
				if _, ok := segmentation.Models[variant]; !ok {
					return fmt.Errorf("unknown model variant %q", name)
				}
				variants = append(variants, variant)
			}
		}

		manager := modeldownloader.NewManager(cfg, log)
		return manager.EnsureModels(variants)
	},
}
