package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ris-sdk/internal/config"
	"ris-sdk/internal/khash"
)

func hashCmd() *cobra.Command {
	var (
		salt     string
		gift     bool
		merchant int64
	)

	cmd := &cobra.Command{
		Use:   "hash [token]",
		Short: "Print the KHASH encoding of a payment token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := encoder(salt)
			if err != nil {
				return err
			}

			var hashed string
			if gift {
				if merchant == 0 {
					return fmt.Errorf("--merchant is required with --gift")
				}
				hashed, err = enc.HashGiftCard(merchant, args[0])
			} else {
				hashed, err = enc.HashPaymentToken(args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}

	cmd.Flags().StringVar(&salt, "salt", "", "Raw hash salt (defaults to the decoded ris.config_key)")
	cmd.Flags().BoolVar(&gift, "gift", false, "Hash as a gift card")
	cmd.Flags().Int64Var(&merchant, "merchant", 0, "Merchant id prefixed to gift card hashes")

	return cmd
}

// encoder prefers an explicit raw salt over the configured key.
func encoder(salt string) (*khash.Encoder, error) {
	if salt != "" {
		return khash.New(salt)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.RIS.RawConfigKey {
		return khash.New(cfg.RIS.ConfigKey)
	}
	return khash.NewFromConfigKey(cfg.RIS.ConfigKey)
}

func maskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mask [card]",
		Short: "Print the MASK encoding of a card number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			masked, err := khash.MaskToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), masked)
			return nil
		},
	}
}
