package main

import (
	"strconv"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x/escrow"
	"github.com/iov-one/barter/x/ledger"
	"github.com/spf13/cobra"
)

type derived struct {
	Address barter.Address `json:"address"`
	Bump    uint8          `json:"bump"`
}

type escrowAddresses struct {
	Escrow barter.Address `json:"escrow"`
	Bump   uint8          `json:"bump"`
	Vault  barter.Address `json:"vault"`
}

func parseAddress(name, s string) (barter.Address, error) {
	a, err := barter.ParseAddress(s)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return a, nil
}

func parseAmount(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidAmount, "%s %q", name, s)
	}
	return n, nil
}

// deriveCmd computes addresses offline, without talking to a node.
func (c *cli) deriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Compute derived addresses",
	}

	esc := &cobra.Command{
		Use:   "escrow <maker> <nonce>",
		Short: "Escrow record and vault addresses of an offer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			maker, err := parseAddress("maker", args[0])
			if err != nil {
				return err
			}
			nonce, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return errors.Wrapf(errors.ErrInvalidInput, "nonce %q", args[1])
			}
			d, err := escrow.Derivation(maker, nonce)
			if err != nil {
				return err
			}
			_, vault, err := escrow.Addresses(maker, nonce)
			if err != nil {
				return err
			}
			return printJSON(cmd, escrowAddresses{Escrow: d.MustAddress(), Bump: d.Bump, Vault: vault})
		},
	}

	vault := &cobra.Command{
		Use:   "vault <escrow>",
		Short: "Vault address of an escrow record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := parseAddress("escrow", args[0])
			if err != nil {
				return err
			}
			d, err := escrow.VaultDerivation(e)
			if err != nil {
				return err
			}
			return printJSON(cmd, derived{Address: d.MustAddress(), Bump: d.Bump})
		},
	}

	account := &cobra.Command{
		Use:   "account <owner> <ticker>",
		Short: "Associated account of an owner for an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseAddress("owner", args[0])
			if err != nil {
				return err
			}
			asset, err := ledger.AssetID(args[1])
			if err != nil {
				return err
			}
			d, err := ledger.AssociatedDerivation(owner, asset)
			if err != nil {
				return err
			}
			return printJSON(cmd, derived{Address: d.MustAddress(), Bump: d.Bump})
		},
	}

	asset := &cobra.Command{
		Use:   "asset <ticker>",
		Short: "Asset id of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ledger.AssetID(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, derived{Address: id})
		},
	}

	cmd.AddCommand(esc, vault, account, asset)
	return cmd
}
