package main

import (
	"time"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/x/escrow"
	"github.com/iov-one/barter/x/ledger"
	"github.com/spf13/cobra"
)

// offer is an escrow record as printed by show and list.
type offer struct {
	Address barter.Address `json:"address"`
	Vault   barter.Address `json:"vault"`
	// Offered is the vault balance.
	Offered uint64         `json:"offered"`
	Record  *escrow.Escrow `json:"record"`
}

func (c *cli) escrowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Open, take and withdraw offers",
	}
	cmd.AddCommand(
		c.escrowOpenCmd(),
		c.escrowFulfillCmd(),
		c.escrowCancelCmd(),
		c.escrowShowCmd(),
		c.escrowListCmd(),
	)
	return cmd
}

func (c *cli) escrowOpenCmd() *cobra.Command {
	var nonce uint64
	cmd := &cobra.Command{
		Use:   "open <offered ticker> <offered amount> <requested ticker> <requested amount>",
		Short: "Lock funds of the local key in a new offer",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			maker := key.PublicKey().Address()
			offered, err := ledger.AssetID(args[0])
			if err != nil {
				return err
			}
			offeredAmount, err := parseAmount("offered amount", args[1])
			if err != nil {
				return err
			}
			requested, err := ledger.AssetID(args[2])
			if err != nil {
				return err
			}
			requestedAmount, err := parseAmount("requested amount", args[3])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("nonce") {
				nonce = uint64(time.Now().UnixNano())
			}
			source, err := ledger.AssociatedAddress(maker, offered)
			if err != nil {
				return err
			}
			esc, vault, err := escrow.Addresses(maker, nonce)
			if err != nil {
				return err
			}
			return c.send(cmd, key, &escrow.OpenMsg{
				Maker:           maker,
				OfferedAsset:    offered,
				RequestedAsset:  requested,
				Source:          source,
				Escrow:          esc,
				Vault:           vault,
				Nonce:           nonce,
				OfferedAmount:   offeredAmount,
				RequestedAmount: requestedAmount,
			})
		},
	}
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "offer nonce, defaults to the current time")
	return cmd
}

func (c *cli) escrowFulfillCmd() *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "fulfill <escrow>",
		Short: "Pay the requested amount and receive the vault funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			o, err := c.loadOffer(args[0])
			if err != nil {
				return err
			}
			taker := key.PublicKey().Address()
			payment, err := ledger.AssociatedAddress(taker, o.Record.RequestedAsset)
			if err != nil {
				return err
			}
			msg := &escrow.FulfillMsg{
				Escrow:  o.Address,
				Vault:   o.Vault,
				Maker:   o.Record.Owner,
				Taker:   taker,
				Payment: payment,
			}
			if dest != "" {
				if msg.Destination, err = parseAddress("destination", dest); err != nil {
					return err
				}
			}
			return c.send(cmd, key, msg)
		},
	}
	cmd.Flags().StringVar(&dest, "destination", "", "account receiving the offered funds")
	return cmd
}

func (c *cli) escrowCancelCmd() *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "cancel <escrow>",
		Short: "Withdraw an offer of the local key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			o, err := c.loadOffer(args[0])
			if err != nil {
				return err
			}
			msg := &escrow.CancelMsg{
				Escrow: o.Address,
				Vault:  o.Vault,
				Maker:  key.PublicKey().Address(),
			}
			if dest != "" {
				if msg.Destination, err = parseAddress("destination", dest); err != nil {
					return err
				}
			}
			return c.send(cmd, key, msg)
		},
	}
	cmd.Flags().StringVar(&dest, "destination", "", "account receiving the refund")
	return cmd
}

func (c *cli) escrowShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <escrow>",
		Short: "Print an open offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.loadOffer(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	}
}

func (c *cli) escrowListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [maker]",
		Short: "Print all open offers of a maker, the local key by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var maker barter.Address
			if len(args) == 1 {
				var err error
				if maker, err = parseAddress("maker", args[0]); err != nil {
					return err
				}
			} else {
				key, err := c.loadKey()
				if err != nil {
					return err
				}
				maker = key.PublicKey().Address()
			}
			db := c.node().Store()
			objs, err := escrow.NewBucket().GetIndexed(db, "owner", maker)
			if err != nil {
				return err
			}
			offers := make([]*offer, 0, len(objs))
			for _, obj := range objs {
				o, err := newOffer(db, obj.Key(), escrow.AsEscrow(obj))
				if err != nil {
					return err
				}
				offers = append(offers, o)
			}
			return printJSON(cmd, offers)
		},
	}
}

func (c *cli) loadOffer(arg string) (*offer, error) {
	addr, err := parseAddress("escrow", arg)
	if err != nil {
		return nil, err
	}
	db := c.node().Store()
	obj, err := escrow.NewBucket().One(db, addr)
	if err != nil {
		return nil, err
	}
	return newOffer(db, addr, escrow.AsEscrow(obj))
}

func newOffer(db barter.ReadOnlyKVStore, addr barter.Address, e *escrow.Escrow) (*offer, error) {
	d, err := escrow.VaultDerivation(addr)
	if err != nil {
		return nil, err
	}
	vault := d.MustAddress()
	amount, err := ledger.NewController().Balance(db, vault)
	if err != nil {
		return nil, err
	}
	return &offer{Address: addr, Vault: vault, Offered: amount, Record: e}, nil
}
