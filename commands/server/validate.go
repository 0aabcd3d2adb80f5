package server

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/store"
)

// ValidateGenesis runs the initializer over the app_state of every given
// genesis file without persisting the result.
func ValidateGenesis(ini barter.Initializer, genesisPaths []string) error {
	if len(genesisPaths) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "usage: validate <genesis.json>...")
	}
	for _, path := range genesisPaths {
		if err := validateGenesis(ini, path); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func validateGenesis(ini barter.Initializer, genesisPath string) error {
	b, err := ioutil.ReadFile(genesisPath)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	var genesis struct {
		State barter.Options `json:"app_state"`
	}
	if err := json.Unmarshal(b, &genesis); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "cannot JSON deserialize genesis: %s", err)
	}

	return ValidateGenesisState(ini, genesis.State)
}

// ValidateGenesisState runs the initializer over given app state and
// discards the result.
func ValidateGenesisState(ini barter.Initializer, state barter.Options) error {
	// Use in memory store because we want to discard the result.
	db := store.MemStore()
	if err := ini.FromGenesis(state, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}
