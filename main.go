package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dataDir    string
	verbose    bool
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "clipboard-plus",
		Short: "Clipboard history that runs in the background",
		Long: `Clipboard Plus watches the system clipboard, keeps every distinct text and image
you copy, and moves repeated copies back to the top of the history.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.json (default ~/.clipboard-plus/config.json)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every captured item")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(copyCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
