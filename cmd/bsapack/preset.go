package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	"github.com/spf13/pflag"

	"github.com/meigma/bsa"
)

// defaultMaxBlockSize keeps each archive below the size the game loads reliably.
const defaultMaxBlockSize = "1G"

// preset is the pack configuration. It can be loaded from a TOML file and is
// then overridden by any flag set on the command line.
type preset struct {
	Data                string   `toml:"data"`
	Folders             []string `toml:"folders"`
	NotFolders          []string `toml:"not_folders"`
	OutputFolder        string   `toml:"output_folder"`
	OutputName          string   `toml:"output_name"`
	MaxBlockSize        string   `toml:"max_block_size"`
	Parallel            int      `toml:"parallel"`
	AggregateDuplicates bool     `toml:"aggregate_duplicates"`
	Game                string   `toml:"game"`
}

func defaultPreset() preset {
	return preset{
		MaxBlockSize: defaultMaxBlockSize,
		Parallel:     1,
		Game:         "se",
	}
}

// loadPreset decodes a TOML preset on top of the defaults.
func loadPreset(path string) (preset, error) {
	p := defaultPreset()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return preset{}, fmt.Errorf("load preset %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return preset{}, fmt.Errorf("load preset %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return p, nil
}

// override copies every flag the user set explicitly from flags into p.
func (p *preset) override(flags *pflag.FlagSet, from preset) {
	if flags.Changed("data") {
		p.Data = from.Data
	}
	if flags.Changed("folder") {
		p.Folders = from.Folders
	}
	if flags.Changed("not-folder") {
		p.NotFolders = from.NotFolders
	}
	if flags.Changed("output-folder") {
		p.OutputFolder = from.OutputFolder
	}
	if flags.Changed("output-name") {
		p.OutputName = from.OutputName
	}
	if flags.Changed("max-block-size") {
		p.MaxBlockSize = from.MaxBlockSize
	}
	if flags.Changed("parallel") {
		p.Parallel = from.Parallel
	}
	if flags.Changed("aggregate-duplicates") {
		p.AggregateDuplicates = from.AggregateDuplicates
	}
	if flags.Changed("game") {
		p.Game = from.Game
	}
}

// settings are the validated values of a preset.
type settings struct {
	preset
	maxBlock int64
	game     bsa.Game
}

func (p preset) validate() (settings, error) {
	s := settings{preset: p}
	switch {
	case strings.TrimSpace(p.Data) == "":
		return s, errors.New("--data is required")
	case strings.TrimSpace(p.OutputFolder) == "":
		return s, errors.New("--output-folder is required")
	case strings.TrimSpace(p.OutputName) == "":
		return s, errors.New("--output-name is required")
	case p.Parallel <= 0:
		return s, fmt.Errorf("--parallel must be > 0, got %d", p.Parallel)
	}

	size, err := units.RAMInBytes(p.MaxBlockSize)
	if err != nil {
		return s, fmt.Errorf("invalid max block size %q (examples: 1G, 800M, 1073741824): %w", p.MaxBlockSize, err)
	}
	if size <= 0 {
		return s, fmt.Errorf("max block size must be positive, got %q", p.MaxBlockSize)
	}
	s.maxBlock = size

	game, ok := bsa.ParseGame(p.Game)
	if !ok {
		return s, fmt.Errorf("unknown game %q (want se or le)", p.Game)
	}
	s.game = game
	return s, nil
}
