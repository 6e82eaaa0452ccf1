package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Blueprint holds static data for one spawnable entity kind loaded from YAML.
// Components lists component names; the remaining fields seed the
// instances when the matching component is present.
type Blueprint struct {
	ID         string       `yaml:"id"`
	Name       string       `yaml:"name"`
	Components []string     `yaml:"components"`
	Glyph      string       `yaml:"glyph"`
	Color      string       `yaml:"color"`
	Layer      int          `yaml:"layer"`
	Blocking   bool         `yaml:"blocking"`
	Speed      int          `yaml:"speed"`  // 0 keeps the component default
	Player     bool         `yaml:"player"` // intents come from input, not a brain
	Brain      string       `yaml:"brain"`
	HP         int          `yaml:"hp"`
	Weight     int          `yaml:"weight"`
	Effects    []EffectSpec `yaml:"effects"`
}

// EffectSpec describes an effect applied on spawn. Decorators wrap the base
// kind when their field is set: turns > 0 makes it temporary, chance in
// (0,1) makes it probabilistic, non_stacking guards duplicates.
type EffectSpec struct {
	Kind        string  `yaml:"kind"` // poison, haste
	Amount      int     `yaml:"amount"`
	Turns       int     `yaml:"turns"`
	Chance      float64 `yaml:"chance"`
	NonStacking bool    `yaml:"non_stacking"`
}

// SpawnEntry defines where and how many entities of a blueprint to spawn.
type SpawnEntry struct {
	Blueprint string `yaml:"blueprint"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	Count     int    `yaml:"count"`
	RandomX   int    `yaml:"randomx"`
	RandomY   int    `yaml:"randomy"`
}

type blueprintListFile struct {
	Blueprints []Blueprint `yaml:"blueprints"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// BlueprintTable holds all blueprints indexed by ID.
type BlueprintTable struct {
	blueprints map[string]*Blueprint
}

// LoadBlueprintTable loads blueprints from a YAML file.
func LoadBlueprintTable(path string) (*BlueprintTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprints: %w", err)
	}
	return ParseBlueprintTable(raw)
}

// ParseBlueprintTable is LoadBlueprintTable over an in-memory document.
func ParseBlueprintTable(raw []byte) (*BlueprintTable, error) {
	var f blueprintListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse blueprints: %w", err)
	}
	t := &BlueprintTable{blueprints: make(map[string]*Blueprint, len(f.Blueprints))}
	for i := range f.Blueprints {
		bp := &f.Blueprints[i]
		if bp.ID == "" {
			return nil, fmt.Errorf("parse blueprints: entry %d has no id", i)
		}
		if _, dup := t.blueprints[bp.ID]; dup {
			return nil, fmt.Errorf("parse blueprints: duplicate id %q", bp.ID)
		}
		t.blueprints[bp.ID] = bp
	}
	return t, nil
}

// Get returns a blueprint by ID, or nil if not found.
func (t *BlueprintTable) Get(id string) *Blueprint {
	return t.blueprints[id]
}

// Count returns the number of loaded blueprints.
func (t *BlueprintTable) Count() int {
	return len(t.blueprints)
}

// IDs returns every blueprint ID, sorted.
func (t *BlueprintTable) IDs() []string {
	out := make([]string, 0, len(t.blueprints))
	for id := range t.blueprints {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadSpawnList loads spawn entries from a YAML file. Count defaults to 1.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	for i := range f.Spawns {
		if f.Spawns[i].Count <= 0 {
			f.Spawns[i].Count = 1
		}
	}
	return f.Spawns, nil
}
