package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
)

var rootCmd = &cobra.Command{
	Use:   "ranobed",
	Short: "Web novel downloader with FB2 and EPUB output",
	Long: `ranobed downloads a web novel from a supported site and packages it
as a single FB2 document or EPUB book with embedded images.

Run "ranobed sites" to list the supported sites.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
}

// Root returns the command tree for the entry point.
func Root() *cobra.Command {
	return rootCmd
}

// envDefault returns the first non-empty value of v and the environment
// variable key.
func envDefault(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}
