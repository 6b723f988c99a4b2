package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jason-s-yu/hbroom/internal/auth"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password for the !admin chat command",
	Long: `Read a password from stdin and print its argon2id hash, ready for the
adminPasswordHash field of a room file.

Example:
  echo -n 'hunter2' | hbroom hash-password`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			return errors.New("empty password")
		}
		hash, err := auth.HashPassword(line, auth.DefaultParams)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue an operator API token",
	Long: `Sign a bearer token for the operator API with HB_ADMIN_KEY. The token
expires after TOKEN_EXPIRE_TIME.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.AdminKey == "" {
			return errors.New("HB_ADMIN_KEY is empty; run 'hbroom keygen' first")
		}
		signer, err := auth.NewSigner(cfg.AdminKey, cfg.TokenExpire)
		if err != nil {
			return err
		}
		token, err := signer.Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a new HB_ADMIN_KEY",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed, err := auth.GenerateSeed()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), seed)
		return nil
	},
}
