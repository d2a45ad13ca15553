package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notname9390/lol/pkg/classifier"
	"github.com/notname9390/lol/pkg/config"
	"github.com/notname9390/lol/pkg/logger"
	"github.com/notname9390/lol/pkg/toolchain"
	"github.com/notname9390/lol/pkg/types"
	"github.com/notname9390/lol/pkg/utils"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a default configuration file",
		Long: `Write a lol.config.json with the default flags and ignore patterns.
The tree is scanned once so the config lists the languages actually present.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootArg(args), force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing configuration")

	return cmd
}

func runInit(root string, force bool) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = filepath.Join(root, "lol.config.json")
	}

	// Check if config already exists
	if utils.FileExists(configPath) && !force {
		return fmt.Errorf("configuration already exists at %s. Use --force to overwrite", configPath)
	}

	manager := config.NewManager()
	cfg := manager.GetDefaultConfig()

	if langs := detectLanguages(root); len(langs) > 0 {
		cfg.Languages = langs
		printInfo(fmt.Sprintf("Detected languages: %s", joinLanguages(langs)))
	} else {
		printInfo("No source files detected yet; the config covers every language")
	}

	if err := manager.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printSuccess(fmt.Sprintf("Created configuration at %s", configPath))
	printInfo("Edit the configuration to customize flags and ignore patterns")

	return nil
}

// detectLanguages scans the tree once and reports which languages it
// holds. Detection failures just mean an unrestricted config.
func detectLanguages(root string) []types.Language {
	log := logger.New("", "error")

	cls, err := classifier.New(toolchain.NewRegistry(), log, classifier.Options{
		IgnorePatterns: config.DefaultIgnorePatterns(),
	})
	if err != nil {
		return nil
	}

	d, err := cls.Discover(root)
	if err != nil || d.IsEmpty() {
		return nil
	}
	return d.Languages()
}

func joinLanguages(langs []types.Language) string {
	names := make([]string, len(langs))
	for i, lang := range langs {
		names[i] = string(lang)
	}
	return strings.Join(names, ", ")
}
