package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// albumManifest is the --names-file format.
//
// Example:
//
//	artist: "Miles Davis"
//	album: "Live at the Plugged Nickel"
//	tracks:
//	  - "If I Were a Bell"
//	  - "Stella by Starlight"
type albumManifest struct {
	Artist string   `yaml:"artist"`
	Album  string   `yaml:"album"`
	Tracks []string `yaml:"tracks"`
}

func loadManifest(path string) (*albumManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open names file %q: %w", path, err)
	}
	defer f.Close()

	m, err := decodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("parse names file %q: %w", path, err)
	}
	return m, nil
}

func decodeManifest(r io.Reader) (*albumManifest, error) {
	var m albumManifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode names yaml: %w", err)
	}
	return &m, nil
}
