package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/crypto"
	"github.com/iov-one/barter/errors"
	"github.com/spf13/cobra"
)

// keyFile is the same layout "barterd init" prints for a generated key.
type keyFile struct {
	Address barter.Address     `json:"address"`
	Pubkey  *crypto.PublicKey  `json:"pub_key"`
	Secret  *crypto.PrivateKey `json:"secret"`
}

type keyInfo struct {
	Address barter.Address `json:"address"`
	Bech32  string         `json:"bech32"`
}

func newKeyInfo(addr barter.Address) (*keyInfo, error) {
	b32, err := addr.Bech32()
	if err != nil {
		return nil, err
	}
	return &keyInfo{Address: addr, Bech32: b32}, nil
}

func (c *cli) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the signing key",
	}

	var force bool
	gen := &cobra.Command{
		Use:   "gen",
		Short: "Generate a new ed25519 key and store it in the key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.keyPath()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Wrapf(errors.ErrDuplicate, "key file %s exists, use --force to overwrite", path)
			}
			key := crypto.GenPrivKeyEd25519()
			pub := key.PublicKey()
			raw, err := json.MarshalIndent(keyFile{Address: pub.Address(), Pubkey: pub, Secret: key}, "", "  ")
			if err != nil {
				return errors.Wrap(errors.ErrInvalidInput, err.Error())
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return errors.Wrap(errors.ErrInvalidInput, err.Error())
			}
			if err := ioutil.WriteFile(path, raw, 0600); err != nil {
				return errors.Wrap(errors.ErrInvalidInput, err.Error())
			}
			info, err := newKeyInfo(pub.Address())
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
	gen.Flags().BoolVar(&force, "force", false, "overwrite an existing key file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the address of the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.loadKey()
			if err != nil {
				return err
			}
			info, err := newKeyInfo(key.PublicKey().Address())
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}

	cmd.AddCommand(gen, show)
	return cmd
}
