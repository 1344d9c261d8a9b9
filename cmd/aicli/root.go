package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petasbytes/aicli/internal/config"
)

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "aicli",
		Short: "Code modification with local Ollama models",
		Long: `aicli reads and modifies code in a project directory by driving a locally
running Ollama model through a fixed set of file and shell tools.

The model never touches the filesystem directly: every change goes through
read_file, write_file, edit_file, grep, glob, or bash, sandboxed to the
project directory.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringP("model", "m", config.DefaultModel, "Ollama model to use")
	pf.StringP("url", "u", config.DefaultBaseURL, "Ollama API URL")
	pf.StringP("project-dir", "d", ".", "project directory to work in")
	pf.Bool("debug", false, "enable debug output")
	pf.Bool("no-stream", false, "disable streaming responses")

	must(v.BindPFlag("model", pf.Lookup("model")))
	must(v.BindPFlag("url", pf.Lookup("url")))
	must(v.BindPFlag("project_dir", pf.Lookup("project-dir")))
	must(v.BindPFlag("debug", pf.Lookup("debug")))

	cmd.AddCommand(newAskCmd(v), newChatCmd(v), newModelsCmd(v))
	return cmd
}

// loadConfig resolves the final configuration for a subcommand, applying the
// --no-stream inversion (the config key is "stream").
func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if noStream, _ := cmd.Flags().GetBool("no-stream"); noStream {
		cfg.Stream = false
	}
	return cfg, nil
}

// must guards flag binding, which only fails on a misspelled flag name.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
