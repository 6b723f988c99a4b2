// hbroom hosts a HaxBall headless room through a bridge and serves an
// operator API next to it.
//
// Usage:
//
//	hbroom run                     - Open the room and keep it up
//	hbroom historian               - Drain the event queue into a database
//	hbroom stadium validate <file> - Check a stadium file
//	hbroom stadium fmt <file>      - Print a stadium in canonical form
//	hbroom hash-password           - Hash an in-room admin password
//	hbroom token <subject>         - Issue an operator API token
//	hbroom keygen                  - Print a new token signing seed
//
// Global flags:
//
//	--env-file <path>   - Load variables from this file (default: .env)
//	--room-file <path>  - Room file, overrides HB_ROOM_FILE
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jason-s-yu/hbroom/internal/config"
)

var (
	flagEnvFile  string
	flagRoomFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hbroom",
	Short: "Host a HaxBall headless room",
	Long: `hbroom opens a HaxBall room through a headless bridge, applies a room
file to it, handles chat commands and exposes an operator HTTP API.

Examples:
  hbroom run --room-file rooms/futsal.yaml
  hbroom stadium validate maps/futsal.hbs
  hbroom token alice`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Variables file to load (default: .env)")
	rootCmd.PersistentFlags().StringVar(&flagRoomFile, "room-file", "", "Room file (overrides HB_ROOM_FILE)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historianCmd)
	rootCmd.AddCommand(stadiumCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(keygenCmd)
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() (config.Config, error) {
	var files []string
	if flagEnvFile != "" {
		files = append(files, flagEnvFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}
	if flagRoomFile != "" {
		rf, err := config.LoadRoomFile(flagRoomFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg.RoomFile = flagRoomFile
		cfg.Room = rf
	}
	return cfg, nil
}
