package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	modulesFile    = "modules.json"
	challengesFile = "challenges.json"
	badgesFile     = "badges.json"
	scenariosFile  = "scenarios.json"
)

var (
	ErrNoModules    = errors.New("resource: module catalog is empty")
	ErrNoChallenges = errors.New("resource: daily challenge catalog is empty")
	ErrDuplicateID  = errors.New("resource: duplicate id")
	ErrBadParameter = errors.New("resource: invalid scenario parameter")
)

// Catalog is the read-only content set shared by every engine.
type Catalog struct {
	Modules    []*LearningModule
	Challenges []*DailyChallenge
	Badges     []*RewardBadge
	Scenarios  []*ScenarioDefinition
}

// Loader reads the catalog JSON files from a content directory.
type Loader struct {
	DataPath string
}

// NewLoader creates a Loader for the given content directory.
func NewLoader(dataPath string) *Loader {
	return &Loader{DataPath: dataPath}
}

// Load reads and validates every catalog file. The badge and scenario files
// are optional; modules and challenges are required and must be non-empty.
func (l *Loader) Load() (*Catalog, error) {
	cat := &Catalog{}
	var err error
	if cat.Modules, err = loadJSONArray[LearningModule](l.path(modulesFile)); err != nil {
		return nil, err
	}
	if cat.Challenges, err = loadJSONArray[DailyChallenge](l.path(challengesFile)); err != nil {
		return nil, err
	}
	if cat.Badges, err = loadOptionalArray[RewardBadge](l.path(badgesFile)); err != nil {
		return nil, err
	}
	if cat.Scenarios, err = loadOptionalArray[ScenarioDefinition](l.path(scenariosFile)); err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (l *Loader) path(file string) string {
	return filepath.Join(l.DataPath, file)
}

func loadJSONArray[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var arr []*T
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	out := arr[:0]
	for _, v := range arr {
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func loadOptionalArray[T any](path string) ([]*T, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return loadJSONArray[T](path)
}

// Validate checks the invariants the engines rely on.
func (c *Catalog) Validate() error {
	if len(c.Modules) == 0 {
		return ErrNoModules
	}
	if len(c.Challenges) == 0 {
		return ErrNoChallenges
	}
	seen := make(map[string]bool)
	unique := func(kind, id string) error {
		key := kind + ":" + id
		if seen[key] {
			return fmt.Errorf("%w: %s %q", ErrDuplicateID, kind, id)
		}
		seen[key] = true
		return nil
	}
	for _, m := range c.Modules {
		if err := unique("module", m.ID); err != nil {
			return err
		}
	}
	for _, ch := range c.Challenges {
		if err := unique("challenge", ch.ID); err != nil {
			return err
		}
	}
	for _, b := range c.Badges {
		if err := unique("badge", b.ID); err != nil {
			return err
		}
	}
	for _, s := range c.Scenarios {
		if err := unique("scenario", s.ID); err != nil {
			return err
		}
		for _, p := range s.Parameters {
			if p.Min > p.Max || p.TargetRange[0] > p.TargetRange[1] || p.Step < 0 {
				return fmt.Errorf("%w: %s.%s", ErrBadParameter, s.ID, p.ID)
			}
		}
	}
	return nil
}

// ModuleByID returns the module with the given id, or nil.
func (c *Catalog) ModuleByID(id string) *LearningModule {
	for _, m := range c.Modules {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ChallengeByID returns the daily challenge with the given id, or nil.
func (c *Catalog) ChallengeByID(id string) *DailyChallenge {
	for _, ch := range c.Challenges {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// ScenarioByID returns the scenario with the given id, or nil.
func (c *Catalog) ScenarioByID(id string) *ScenarioDefinition {
	for _, s := range c.Scenarios {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ScenariosFor returns the scenarios that have a persona for focus.
func (c *Catalog) ScenariosFor(focus Audience) []*ScenarioDefinition {
	var out []*ScenarioDefinition
	for _, s := range c.Scenarios {
		if s.ServesFocus(focus) {
			out = append(out, s)
		}
	}
	return out
}

// KnownBadge reports whether id is a reward badge or a scenario reward badge.
func (c *Catalog) KnownBadge(id string) bool {
	for _, b := range c.Badges {
		if b.ID == id {
			return true
		}
	}
	for _, s := range c.Scenarios {
		if s.Reward.BadgeID == id {
			return true
		}
	}
	return false
}
