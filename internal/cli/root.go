package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/grepsan/huddle/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "huddle",
	Short: "Join a Huddle room from the terminal",
	Long:  `Huddle is a signaling server for multi-party WebRTC sessions. This CLI joins a room as a text-only participant: it shows who is in the room, announces arrivals and departures, and relays chat.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
