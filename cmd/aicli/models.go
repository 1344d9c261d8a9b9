package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petasbytes/aicli/internal/ollama"
	"github.com/petasbytes/aicli/internal/render"
)

func newModelsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the inference daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			out := render.New(cfg.Debug)
			client := ollama.New(cfg.BaseURL)
			names, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				out.Info("No models installed; pull one with `ollama pull <name>`.")
				return nil
			}
			for _, n := range names {
				out.Info("• %s", n)
			}
			return nil
		},
	}
	return cmd
}
