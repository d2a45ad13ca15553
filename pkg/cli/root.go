// Package cli provides the command-line interface for lol.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notname9390/lol/pkg/types"
)

// Exit codes: 0 every job compiled, 1 at least one job failed or was
// skipped, 2 the run never produced a report.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitFatal   = 2
)

var (
	cfgFile   string
	verbosity string
	version   string

	exitCode int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lol [path]",
	Short: "Compile every source file in a tree, whatever the language",
	Long: `lol scans a directory tree, groups source files by language, and runs
each group through its native compiler in parallel. One invocation, one
report, twenty languages.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		// Check if version flag is set
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("lol v%s\n", version)
			return nil
		}
		return runBuild(cmd, args)
	},
}

// Execute runs the CLI and returns the process exit code.
func Execute(v string) int {
	version = v
	exitCode = ExitSuccess

	// Initialize the root command explicitly (avoiding init())
	initializeRootCommand()

	if err := rootCmd.Execute(); err != nil {
		return ExitFatal
	}
	return exitCode
}

// ExitCode maps a run outcome to the process exit code.
func ExitCode(rep *types.BuildReport, err error) int {
	switch {
	case err != nil:
		return ExitFatal
	case rep != nil && rep.OverallSuccess:
		return ExitSuccess
	default:
		return ExitFailure
	}
}

// initializeRootCommand sets up the root command and its flags.
// This replaces the init() function to make initialization explicit and testable.
func initializeRootCommand() {
	// Set up config initialization
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: lol.config.json in the target root)")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")

	// Build flags live on the root command because `lol [path]` is the build
	addBuildFlags(rootCmd)
	rootCmd.Flags().Bool("version", false, "Print version information and quit")

	// Add subcommands
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newLanguagesCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in the working directory
		viper.AddConfigPath(".")
		viper.SetConfigName("lol.config")
		viper.SetConfigType("json")

		// Also try YAML
		viper.SetConfigName("lol.config")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables
	viper.SetEnvPrefix("LOL")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		if verbosity == "debug" {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

// Helper functions

func printSuccess(message string) {
	fmt.Printf("%s %s\n", color.GreenString("[lol]"), message)
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("[lol]"), message)
}

func printInfo(message string) {
	fmt.Printf("%s %s\n", color.CyanString("[lol]"), message)
}

func printWarning(message string) {
	fmt.Printf("%s %s\n", color.YellowString("[lol]"), message)
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
