package main

import (
	"github.com/iov-one/barter"
	"github.com/iov-one/barter/x/ledger"
	"github.com/spf13/cobra"
)

func (c *cli) assetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage assets",
	}
	create := &cobra.Command{
		Use:   "create <ticker> [issuer]",
		Short: "Register a new asset, issued by the local key unless given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			issuer, err := signerOr(key, args, 1, "issuer")
			if err != nil {
				return err
			}
			return c.send(cmd, key, &ledger.CreateAssetMsg{Ticker: args[0], Issuer: issuer})
		},
	}
	show := &cobra.Command{
		Use:   "show <ticker>",
		Short: "Print an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ledger.AssetID(args[0])
			if err != nil {
				return err
			}
			asset, err := ledger.NewController().Asset(c.node().Store(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, asset)
		},
	}
	cmd.AddCommand(create, show)
	return cmd
}

func (c *cli) mintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <ticker> <owner> <amount>",
		Short: "Mint into the associated account of owner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			asset, err := ledger.AssetID(args[0])
			if err != nil {
				return err
			}
			owner, err := parseAddress("owner", args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[2])
			if err != nil {
				return err
			}
			dest, err := ledger.AssociatedAddress(owner, asset)
			if err != nil {
				return err
			}
			return c.send(cmd, key, &ledger.MintMsg{Asset: asset, Destination: dest, Amount: amount})
		},
	}
}

func (c *cli) accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage ledger accounts",
	}
	open := &cobra.Command{
		Use:   "open <ticker> [owner]",
		Short: "Open the associated account of owner, paying the deposit",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			asset, err := ledger.AssetID(args[0])
			if err != nil {
				return err
			}
			owner, err := signerOr(key, args, 1, "owner")
			if err != nil {
				return err
			}
			return c.send(cmd, key, &ledger.OpenAccountMsg{
				Owner: owner,
				Asset: asset,
				Payer: key.PublicKey().Address(),
			})
		},
	}
	closeCmd := &cobra.Command{
		Use:   "close <ticker>",
		Short: "Close the empty associated account of the local key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			addr, err := associated(key.PublicKey().Address(), args[0])
			if err != nil {
				return err
			}
			return c.send(cmd, key, &ledger.CloseAccountMsg{Account: addr})
		},
	}
	cmd.AddCommand(open, closeCmd)
	return cmd
}

func (c *cli) transferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <ticker> <recipient> <amount>",
		Short: "Move funds between associated accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			src, err := associated(key.PublicKey().Address(), args[0])
			if err != nil {
				return err
			}
			rcpt, err := parseAddress("recipient", args[1])
			if err != nil {
				return err
			}
			dest, err := associated(rcpt, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[2])
			if err != nil {
				return err
			}
			return c.send(cmd, key, &ledger.TransferMsg{Source: src, Destination: dest, Amount: amount})
		},
	}
}

type balance struct {
	Account barter.Address `json:"account"`
	Amount  uint64         `json:"amount"`
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <ticker> [owner]",
		Short: "Balance of the associated account of owner",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var owner barter.Address
			if len(args) > 1 {
				var err error
				if owner, err = parseAddress("owner", args[1]); err != nil {
					return err
				}
			} else {
				key, err := c.loadKey()
				if err != nil {
					return err
				}
				owner = key.PublicKey().Address()
			}
			addr, err := associated(owner, args[0])
			if err != nil {
				return err
			}
			amount, err := ledger.NewController().Balance(c.node().Store(), addr)
			if err != nil {
				return err
			}
			return printJSON(cmd, balance{Account: addr, Amount: amount})
		},
	}
}

func associated(owner barter.Address, ticker string) (barter.Address, error) {
	asset, err := ledger.AssetID(ticker)
	if err != nil {
		return nil, err
	}
	return ledger.AssociatedAddress(owner, asset)
}
