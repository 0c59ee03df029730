package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	"github.com/matzehuels/voltseed/pkg/network"
)

// ReadJSON decodes a JSON network from r.
//
// The input must be a JSON object with a "buses" array and optional
// "ext_grids", "transformers", "lines" and "switches" arrays:
//
//	{
//	  "buses": [{"id": 0, "vn_kv": 220}, {"id": 1, "vn_kv": 110}],
//	  "ext_grids": [{"bus": 0, "vm_pu": 1.02, "va_degree": 5}],
//	  "transformers": [{"hv_bus": 0, "lv_bus": 1, "vn_hv_kv": 220, "vn_lv_kv": 110}]
//	}
//
// ReadJSON returns an error coded [voltErrors.ErrCodeInvalidFormat] if the
// document is malformed, and one coded [voltErrors.ErrCodeInvalidNetwork] if
// it fails [network.Network.Validate]. Use errors.Is to match the underlying
// network sentinel. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*network.Network, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, voltErrors.Wrap(voltErrors.ErrCodeInvalidFormat, err, "decode json")
	}
	return build(&doc)
}

// ReadTOML decodes a TOML network from r. Tables use the same keys as JSON,
// with elements as arrays of tables ([[buses]], [[transformers]], ...).
func ReadTOML(r io.Reader) (*network.Network, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, voltErrors.Wrap(voltErrors.ErrCodeInvalidFormat, err, "decode toml")
	}
	return build(&doc)
}

// ReadYAML decodes a YAML network from r using the JSON keys.
func ReadYAML(r io.Reader) (*network.Network, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, voltErrors.Wrap(voltErrors.ErrCodeInvalidFormat, err, "decode yaml")
	}
	return build(&doc)
}

func build(doc *document) (*network.Network, error) {
	net := doc.network()
	if err := net.Validate(); err != nil {
		return nil, voltErrors.Wrap(voltErrors.ErrCodeInvalidNetwork, err, "invalid network")
	}
	return net, nil
}

// Import reads the network file at path, choosing the decoder by extension:
// .json, .toml, .yaml or .yml. The path is checked with
// [voltErrors.ValidateNetworkPath] first.
//
// A missing file yields an error coded [voltErrors.ErrCodeFileNotFound].
func Import(path string) (*network.Network, error) {
	if err := voltErrors.ValidateNetworkPath(path); err != nil {
		return nil, err
	}

	var read func(io.Reader) (*network.Network, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		read = ReadTOML
	case ".yaml", ".yml":
		read = ReadYAML
	default:
		read = ReadJSON
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, voltErrors.Wrap(voltErrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	net, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if net.Name == "" {
		net.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return net, nil
}

// ImportJSON reads a JSON network file at path regardless of its extension.
func ImportJSON(path string) (*network.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
