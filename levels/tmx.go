package levels

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/lafriks/go-tiled"
)

// LoadTMX imports a Tiled map. Each polyline or polygon in the "footholds"
// object group becomes a chain, each rectangle in "ladders" a climbable zone
// and each object in "spawns" a player spawn or, with a "prefab" property, a
// mob.
func LoadTMX(fsys fs.FS, tmxPath string) (*Level, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	lvl := &Level{Name: strings.TrimSuffix(path.Base(tmxPath), path.Ext(tmxPath))}
	layers := map[int]*Layer{}
	var order []int
	nextID := 1

	for _, og := range levelMap.ObjectGroups {
		switch og.Name {
		case "footholds":
			for _, o := range og.Objects {
				points, loop := objectPath(o)
				if len(points) < 2 {
					continue
				}
				idx := o.Properties.GetInt("layer")
				layer, ok := layers[idx]
				if !ok {
					layer = &Layer{Index: idx}
					layers[idx] = layer
					order = append(order, idx)
				}
				group := Group{Index: int(o.ID)}
				group.Footholds, nextID = chain(points, loop, nextID)
				layer.Groups = append(layer.Groups, group)
			}
		case "ladders":
			for _, o := range og.Objects {
				lvl.Ladders = append(lvl.Ladders, Ladder{
					ID:       int(o.ID),
					IsLadder: o.Properties.GetBool("is_ladder"),
					X:        o.X + o.Width/2,
					Y1:       o.Y,
					Y2:       o.Y + o.Height,
					Layer:    o.Properties.GetInt("layer"),
					Piece:    o.Properties.GetInt("piece"),
				})
			}
		case "spawns":
			for _, o := range og.Objects {
				if prefab := o.Properties.GetString("prefab"); prefab != "" {
					m := Mob{Prefab: prefab, X: o.X, Y: o.Y}
					if o.Properties.GetString("min_x") != "" && o.Properties.GetString("max_x") != "" {
						minX, maxX := o.Properties.GetFloat("min_x"), o.Properties.GetFloat("max_x")
						m.MinX, m.MaxX = &minX, &maxX
					}
					lvl.Mobs = append(lvl.Mobs, m)
					continue
				}
				lvl.Spawns = append(lvl.Spawns, Spawn{Name: o.Name, X: o.X, Y: o.Y})
			}
		}
	}

	for _, idx := range order {
		lvl.Layers = append(lvl.Layers, *layers[idx])
	}
	if len(lvl.Layers) == 0 {
		return nil, fmt.Errorf("load TMX %s: no footholds object group", tmxPath)
	}
	return lvl, nil
}

type point struct{ X, Y float64 }

// objectPath returns the absolute points of a polyline or polygon object and
// whether they close into a loop.
func objectPath(o *tiled.Object) ([]point, bool) {
	var pts *tiled.Points
	loop := o.Properties.GetBool("loop")
	switch {
	case len(o.PolyLines) > 0:
		pts = o.PolyLines[0].Points
	case len(o.Polygons) > 0:
		pts = o.Polygons[0].Points
		loop = true
	}
	if pts == nil {
		return nil, false
	}
	out := make([]point, 0, len(*pts))
	for _, p := range *pts {
		out = append(out, point{X: o.X + p.X, Y: o.Y + p.Y})
	}
	return out, loop && len(out) > 2
}

// chain links consecutive points into footholds numbered from first.
func chain(points []point, loop bool, first int) ([]Foothold, int) {
	n := len(points) - 1
	if loop {
		n = len(points)
	}
	fhs := make([]Foothold, 0, n)
	for i := 0; i < n; i++ {
		a, b := points[i], points[(i+1)%len(points)]
		fh := Foothold{ID: first + i, X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
		if i > 0 {
			fh.Prev = first + i - 1
		}
		if i < n-1 {
			fh.Next = first + i + 1
		}
		fhs = append(fhs, fh)
	}
	if loop {
		fhs[0].Prev = first + n - 1
		fhs[n-1].Next = first
	}
	return fhs, first + n
}
