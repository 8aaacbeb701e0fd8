// internal/levels/levels.go
//
// Level catalog for the puzzle.
//
// Responsibilities:
//   - Load level definitions from YAML (a file named by LEVELS_FILE, or the
//     embedded default in assets/levels.yaml).
//   - Validate ids (1..n, in order) and resolve each rule key to a predicate.
//   - Generate a level's pattern and compute the level that follows it.
//
// Initialization behavior (Init):
//   1. If LEVELS_FILE is set, load the catalog from that file.
//   2. Otherwise use the embedded default.
// Init runs once (sync.Once); later calls return the first result.

package levels

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/patternpuzzle/assets"
	"github.com/robalobadob/patternpuzzle/internal/pattern"
)

// ErrUnknownLevel is returned for ids outside the catalog.
var ErrUnknownLevel = errors.New("levels: unknown level")

// Level is one entry of the catalog.
type Level struct {
	ID          int    `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Emoji       string `yaml:"emoji" json:"emoji,omitempty"`
	Color       string `yaml:"color" json:"color,omitempty"`
	RuleKey     string `yaml:"rule" json:"rule"`

	rule pattern.Rule
}

// Catalog is an ordered, validated list of levels.
type Catalog struct {
	levels []Level
}

type file struct {
	Levels []Level `yaml:"levels"`
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse levels: %w", err)
	}
	if len(f.Levels) == 0 {
		return nil, errors.New("levels: catalog is empty")
	}
	for i := range f.Levels {
		lv := &f.Levels[i]
		if lv.ID != i+1 {
			return nil, fmt.Errorf("levels: entry %d has id %d, want %d", i, lv.ID, i+1)
		}
		if lv.Name == "" {
			return nil, fmt.Errorf("levels: level %d has no name", lv.ID)
		}
		r, err := pattern.RuleFor(lv.RuleKey)
		if err != nil {
			return nil, fmt.Errorf("levels: level %d: %w", lv.ID, err)
		}
		lv.rule = r
	}
	return &Catalog{levels: f.Levels}, nil
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read levels file: %w", err)
	}
	return Parse(data)
}

// Count returns the number of levels.
func (c *Catalog) Count() int { return len(c.levels) }

// All returns a copy of the levels in order.
func (c *Catalog) All() []Level {
	return append([]Level(nil), c.levels...)
}

// Get returns the level with the given id.
func (c *Catalog) Get(id int) (Level, error) {
	if id < 1 || id > len(c.levels) {
		return Level{}, fmt.Errorf("%w: %d", ErrUnknownLevel, id)
	}
	return c.levels[id-1], nil
}

// Valid reports whether id names a level.
func (c *Catalog) Valid(id int) bool { return id >= 1 && id <= len(c.levels) }

// Pattern evaluates the level's rule over the grid.
func (c *Catalog) Pattern(id int) (pattern.Pattern, error) {
	lv, err := c.Get(id)
	if err != nil {
		return pattern.Pattern{}, err
	}
	return pattern.Generate(lv.rule), nil
}

// Next returns the id after id; after the last level it wraps to 1.
func (c *Catalog) Next(id int) (next int, wrapped bool) {
	if id < len(c.levels) {
		return id + 1, false
	}
	return 1, true
}

var (
	initOnce   sync.Once
	defaultCat *Catalog
	initErr    error
)

// Init loads the process-wide catalog exactly once.
func Init() error {
	initOnce.Do(func() {
		if path := os.Getenv("LEVELS_FILE"); path != "" {
			defaultCat, initErr = Load(path)
			return
		}
		data, err := assets.LevelsYAML()
		if err != nil {
			initErr = fmt.Errorf("read embedded levels: %w", err)
			return
		}
		defaultCat, initErr = Parse(data)
	})
	return initErr
}

// Default returns the catalog loaded by Init, or nil if Init failed.
func Default() *Catalog {
	_ = Init()
	return defaultCat
}
