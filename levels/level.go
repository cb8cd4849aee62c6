package levels

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/milk9111/footsim/foothold"
	"github.com/milk9111/footsim/ladder"
	"github.com/milk9111/footsim/prefabs"
)

//go:embed *.json
var LevelsFS embed.FS

var ErrBadID = errors.New("levels: foothold id must be positive")

// Level is a map in the JSON format. Foothold ids are 1-based with 0 meaning
// no neighbour. Coordinates are pixels with y pointing down.
type Level struct {
	Name    string   `json:"name"`
	Layers  []Layer  `json:"layers"`
	Ladders []Ladder `json:"ladders,omitempty"`
	Spawns  []Spawn  `json:"spawns,omitempty"`
	Mobs    []Mob    `json:"mobs,omitempty"`
}

type Layer struct {
	Index  int     `json:"index"`
	Groups []Group `json:"groups"`
}

type Group struct {
	Index     int        `json:"index"`
	Footholds []Foothold `json:"footholds"`
}

type Foothold struct {
	ID   int     `json:"id"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	Prev int     `json:"prev"`
	Next int     `json:"next"`
}

type Ladder struct {
	ID       int     `json:"id"`
	IsLadder bool    `json:"is_ladder"`
	X        float64 `json:"x"`
	Y1       float64 `json:"y1"`
	Y2       float64 `json:"y2"`
	Layer    int     `json:"layer"`
	Piece    int     `json:"piece"`
}

type Spawn struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Mob places a mob prefab. MinX and MaxX, when both set, confine it.
type Mob struct {
	Prefab string   `json:"prefab"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	MinX   *float64 `json:"min_x,omitempty"`
	MaxX   *float64 `json:"max_x,omitempty"`
}

// Region is the mob's confinement, or nil.
func (m Mob) Region() *prefabs.RegionSpec {
	if m.MinX == nil || m.MaxX == nil {
		return nil
	}
	return &prefabs.RegionSpec{MinX: *m.MinX, MaxX: *m.MaxX}
}

// Footholds flattens the layers into graph records with 0-based ids and
// foothold.None for missing neighbours.
func (l *Level) Footholds() ([]foothold.Record, error) {
	var out []foothold.Record
	for _, layer := range l.Layers {
		for _, group := range layer.Groups {
			for _, fh := range group.Footholds {
				if fh.ID <= 0 {
					return nil, fmt.Errorf("%w: %d in layer %d group %d", ErrBadID, fh.ID, layer.Index, group.Index)
				}
				out = append(out, foothold.Record{
					ID:    fh.ID - 1,
					X1:    fh.X1,
					Y1:    fh.Y1,
					X2:    fh.X2,
					Y2:    fh.Y2,
					Prev:  toRecordID(fh.Prev),
					Next:  toRecordID(fh.Next),
					Layer: layer.Index,
					Group: group.Index,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func toRecordID(id int) int {
	if id <= 0 {
		return foothold.None
	}
	return id - 1
}

// Graph builds the foothold graph of the level.
func (l *Level) Graph() (*foothold.Graph, error) {
	records, err := l.Footholds()
	if err != nil {
		return nil, err
	}
	g, err := foothold.Build(records)
	if err != nil {
		return nil, fmt.Errorf("levels: %s: %w", l.Name, err)
	}
	return g, nil
}

func (l *Level) LadderRecords() []ladder.Record {
	out := make([]ladder.Record, 0, len(l.Ladders))
	for _, lr := range l.Ladders {
		out = append(out, ladder.Record{
			ID:       lr.ID,
			IsLadder: lr.IsLadder,
			X:        lr.X,
			Y1:       lr.Y1,
			Y2:       lr.Y2,
			Layer:    lr.Layer,
			Piece:    lr.Piece,
		})
	}
	return out
}

// Spawn returns the named spawn point, or the first one when name is empty.
func (l *Level) Spawn(name string) (Spawn, bool) {
	for _, s := range l.Spawns {
		if name == "" || s.Name == name {
			return s, true
		}
	}
	return Spawn{}, false
}

func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	return &lvl, nil
}

// Load reads a level from disk. TMX files go through the Tiled importer.
func Load(file string) (*Level, error) {
	if strings.EqualFold(path.Ext(file), ".tmx") {
		dir, name := path.Split(pathSlash(file))
		switch {
		case dir == "":
			dir = "."
		case dir != "/":
			dir = strings.TrimSuffix(dir, "/")
		}
		return LoadTMX(os.DirFS(dir), name)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	return named(Parse(data))(file)
}

// LoadFromFS reads a JSON or TMX level from fsys.
func LoadFromFS(fsys fs.FS, name string) (*Level, error) {
	if strings.EqualFold(path.Ext(name), ".tmx") {
		return LoadTMX(fsys, name)
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	return named(Parse(data))(name)
}

// LoadEmbedded reads one of the built-in levels.
func LoadEmbedded(name string) (*Level, error) {
	if path.Ext(name) == "" {
		name += ".json"
	}
	return LoadFromFS(LevelsFS, name)
}

// Names lists the built-in levels without extension.
func Names() []string {
	matches, _ := fs.Glob(LevelsFS, "*.json")
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, ".json"))
	}
	sort.Strings(names)
	return names
}

func named(lvl *Level, err error) func(string) (*Level, error) {
	return func(file string) (*Level, error) {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if lvl.Name == "" {
			lvl.Name = strings.TrimSuffix(path.Base(pathSlash(file)), path.Ext(file))
		}
		return lvl, nil
	}
}

func pathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
