package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/stadium"
)

var flagFormat string

var stadiumCmd = &cobra.Command{
	Use:   "stadium",
	Short: "Work with stadium files",
}

var stadiumValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check stadium files before uploading them",
	Long: `Parse each file (.hbs, .json, .yaml) and run the same checks the operator
API runs on upload. Every problem is printed with its path in the file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStadiumValidate,
}

var stadiumFmtCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Print a stadium in canonical form",
	Long: `Read a stadium and print it without comments or trailing commas.

Examples:
  hbroom stadium fmt futsal.hbs > futsal.json
  hbroom stadium fmt --format yaml futsal.hbs`,
	Args: cobra.ExactArgs(1),
	RunE: runStadiumFmt,
}

func init() {
	stadiumFmtCmd.Flags().StringVar(&flagFormat, "format", "json", "Output format: json, yaml or compact")
	stadiumCmd.AddCommand(stadiumValidateCmd)
	stadiumCmd.AddCommand(stadiumFmtCmd)
}

func runStadiumValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		st, err := stadium.Load(path)
		if err == nil {
			err = stadium.Validate(st, models.DefaultCollisionFlags)
		}
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", path, st.Name)
			continue
		}
		failed++
		var verrs stadium.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, v)
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stadiums invalid", failed, len(args))
	}
	return nil
}

func runStadiumFmt(cmd *cobra.Command, args []string) error {
	st, err := stadium.Load(args[0])
	if err != nil {
		return err
	}
	var out []byte
	switch strings.ToLower(flagFormat) {
	case "json":
		out, err = stadium.EncodeIndent(st)
	case "compact":
		out, err = stadium.Encode(st)
	case "yaml":
		out, err = stadium.EncodeYAML(st)
	default:
		return fmt.Errorf("unknown format %q", flagFormat)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(args[0]), err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
