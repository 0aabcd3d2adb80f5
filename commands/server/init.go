package server

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/barter/errors"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagIndex = "i"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// GenesisPath returns the location of the tendermint genesis file under
// given home directory.
func GenesisPath(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

func parseIndex(args []string) (bool, []string, error) {
	var overwrite bool
	initFlags := flag.NewFlagSet("init", flag.ContinueOnError)
	initFlags.BoolVar(&overwrite, flagIndex, false, "overwrite existing app_state")
	err := initFlags.Parse(args)
	return overwrite, initFlags.Args(), err
}

// InitCmd will add the app_state produced by gen to the genesis file
// generated by "tendermint init" in the same home directory.
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	overwrite, rest, err := parseIndex(args)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	genFile := GenesisPath(home)
	if _, err := os.Stat(genFile); err != nil {
		return errors.Wrapf(errors.ErrNotFound, "%s: run \"tendermint init\" first", genFile)
	}

	options, err := gen(rest)
	if err != nil {
		return err
	}
	if err := addGenesisOptions(genFile, options, overwrite); err != nil {
		return err
	}
	logger.Info("App state added to genesis", "path", genFile)
	return nil
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename string, options json.RawMessage, overwrite bool) error {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "genesis file: %s", err)
	}

	if state, ok := doc["app_state"]; ok && len(state) > 0 && string(state) != "null" && !overwrite {
		return errors.Wrap(errors.ErrDuplicate, "app_state already set, use -i to overwrite")
	}

	doc["app_state"] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return ioutil.WriteFile(filename, out, 0600)
}
