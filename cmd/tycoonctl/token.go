package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tycoon_ledger/internal/auth"
	"tycoon_ledger/internal/domain"
)

var tokenOpts struct {
	address string
	ttl     time.Duration
}

func init() {
	f := tokenIssueCmd.Flags()
	f.StringVar(&tokenOpts.address, "address", "", "ledger address the token authorizes")
	f.DurationVar(&tokenOpts.ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	_ = tokenIssueCmd.MarkFlagRequired("address")

	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Print a bearer token signed with $JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := domain.ParseAddress(tokenOpts.address)
		if err != nil {
			return err
		}
		issuer, err := auth.NewIssuer(os.Getenv("JWT_SECRET"))
		if err != nil {
			return err
		}
		token, err := issuer.Issue(addr, tokenOpts.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
