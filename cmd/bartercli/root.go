package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/client"
	"github.com/iov-one/barter/crypto"
	"github.com/iov-one/barter/errors"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagHome    = "home"
	flagNode    = "node"
	flagChainID = "chain_id"
	flagKey     = "key"

	configName = "config.yaml"
	keyName    = "key.json"
)

// node is the part of client.Client the commands talk to.
type node interface {
	ChainID(ctx context.Context) (string, error)
	Sequence(ctx context.Context, signer barter.Address) (int64, error)
	CommitTx(ctx context.Context, tx client.Tx) (*client.CommitResult, error)
	Store() barter.ReadOnlyKVStore
}

// nodeFactory connects to the node at the given address.
type nodeFactory func(remote string) node

func defaultNode(remote string) node {
	return client.NewClient(client.NewHTTPConnection(remote))
}

// cli carries the configuration shared by all commands.
type cli struct {
	v       *viper.Viper
	connect nodeFactory
}

func newRootCmd(connect nodeFactory) *cobra.Command {
	c := &cli{v: viper.New(), connect: connect}

	root := &cobra.Command{
		Use:           "bartercli",
		Short:         "Client for the barter escrow chain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	flags := root.PersistentFlags()
	flags.String(flagHome, filepath.Join(home, ".bartercli"), "directory for config and key")
	flags.String(flagNode, "tcp://localhost:26657", "tendermint rpc address of the node")
	flags.String(flagChainID, "", "chain id, queried from the node when empty")
	flags.String(flagKey, "", "private key file, defaults to key.json in home")
	for _, name := range []string{flagHome, flagNode, flagChainID, flagKey} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	c.v.SetEnvPrefix("barter")
	c.v.AutomaticEnv()

	root.AddCommand(
		c.initCmd(),
		c.keysCmd(),
		c.deriveCmd(),
		c.assetCmd(),
		c.mintCmd(),
		c.accountCmd(),
		c.transferCmd(),
		c.balanceCmd(),
		c.escrowCmd(),
	)
	return root
}

// loadConfig merges home/config.yaml below the flags, if the file exists.
func (c *cli) loadConfig() error {
	path := filepath.Join(c.v.GetString(flagHome), configName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "config %s: %s", path, err)
	}
	return nil
}

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := c.v.GetString(flagHome)
			if err := os.MkdirAll(home, 0700); err != nil {
				return errors.Wrap(errors.ErrInvalidInput, err.Error())
			}
			path := filepath.Join(home, configName)
			out := viper.New()
			for _, name := range []string{flagNode, flagChainID, flagKey} {
				out.Set(name, c.v.GetString(name))
			}
			if err := out.WriteConfigAs(path); err != nil {
				return errors.Wrap(errors.ErrInvalidInput, err.Error())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file created: %s\n", path)
			return nil
		},
	}
}

func (c *cli) keyPath() string {
	if p := c.v.GetString(flagKey); p != "" {
		return p
	}
	return filepath.Join(c.v.GetString(flagHome), keyName)
}

// loadKey reads the key file written by "keys gen".
func (c *cli) loadKey() (*crypto.PrivateKey, error) {
	path := c.keyPath()
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "key file %s", path)
	}
	var k keyFile
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "key file %s: %s", path, err)
	}
	if k.Secret == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "key file %s: no secret", path)
	}
	return k.Secret, nil
}

func (c *cli) node() node {
	return c.connect(c.v.GetString(flagNode))
}

func (c *cli) chainID(ctx context.Context, n node) (string, error) {
	if id := c.v.GetString(flagChainID); id != "" {
		return id, nil
	}
	return n.ChainID(ctx)
}

func printJSON(cmd *cobra.Command, obj interface{}) error {
	raw, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
