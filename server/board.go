package server

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/zucenko/areaattack/model"
)

type TileState int

const (
	TS_EMPTY TileState = iota
	TS_OWNED
	TS_MINE
	TS_HARD_MINE
	TS_DESTROYED
)

func (s TileState) Name() string {
	switch s {
	case TS_EMPTY:
		return "EMPTY"
	case TS_OWNED:
		return "OWNED"
	case TS_MINE:
		return "MINE"
	case TS_HARD_MINE:
		return "HARD_MINE"
	case TS_DESTROYED:
		return "DESTROYED"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

// Tile is the authoritative state of one cell. Owner is set only for TS_OWNED.
type Tile struct {
	State TileState
	Owner int32
}

func (t Tile) IsMine() bool {
	return t.State == TS_MINE || t.State == TS_HARD_MINE
}

// Shape is an immutable field template shared between sessions.
type Shape struct {
	Name  string
	Cells []model.Position
}

type Board struct {
	Shape          *Shape
	tiles          map[model.Position]*Tile
	remainingBlank int
}

func NewBoard(shape *Shape) *Board {
	b := &Board{
		Shape: shape,
		tiles: make(map[model.Position]*Tile, len(shape.Cells)),
	}
	for _, p := range shape.Cells {
		if _, dup := b.tiles[p]; dup {
			continue
		}
		b.tiles[p] = &Tile{State: TS_EMPTY}
		b.remainingBlank++
	}
	return b
}

// Get returns false for positions outside the shape.
func (b *Board) Get(p model.Position) (Tile, bool) {
	t, ok := b.tiles[p]
	if !ok {
		return Tile{}, false
	}
	return *t, true
}

func (b *Board) Contains(p model.Position) bool {
	_, ok := b.tiles[p]
	return ok
}

// Set is the only mutator; it keeps RemainingBlank in step with the tiles.
func (b *Board) Set(p model.Position, to Tile) bool {
	t, ok := b.tiles[p]
	if !ok {
		return false
	}
	if t.State == TS_EMPTY {
		b.remainingBlank--
	}
	if to.State == TS_EMPTY {
		b.remainingBlank++
	}
	if to.State != TS_OWNED {
		to.Owner = 0
	}
	*t = to
	return true
}

// RemainingBlank counts cells without a mine that nobody revealed yet.
func (b *Board) RemainingBlank() int {
	return b.remainingBlank
}

func (b *Board) Size() int {
	return len(b.tiles)
}

// Neighbors lists the valid cells of the 3x3 block around p, row by row.
func (b *Board) Neighbors(p model.Position) []model.Position {
	ns := make([]model.Position, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := p.Add(dx, dy)
			if _, ok := b.tiles[n]; ok {
				ns = append(ns, n)
			}
		}
	}
	return ns
}

func (b *Board) MineCount(p model.Position) int {
	count := 0
	for _, n := range b.Neighbors(p) {
		if b.tiles[n].IsMine() {
			count++
		}
	}
	return count
}

// Positions returns every cell in a stable order.
func (b *Board) Positions() []model.Position {
	ps := make([]model.Position, 0, len(b.tiles))
	for p := range b.tiles {
		ps = append(ps, p)
	}
	sortPositions(ps)
	return ps
}

// PlaceMines turns round(density*eligible) randomly chosen Empty cells not in
// exclude into mines and returns how many it placed.
func (b *Board) PlaceMines(exclude map[model.Position]struct{}, density float64, rng *rand.Rand) int {
	eligible := make([]model.Position, 0, len(b.tiles))
	for _, p := range b.Positions() {
		if _, skip := exclude[p]; skip {
			continue
		}
		if b.tiles[p].State != TS_EMPTY {
			continue
		}
		eligible = append(eligible, p)
	}
	count := int(math.Round(density * float64(len(eligible))))
	if count > len(eligible) {
		count = len(eligible)
	}
	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	for _, p := range eligible[:count] {
		b.Set(p, Tile{State: TS_MINE})
	}
	return count
}

// Disk splits the cells around center by floor(euclidean distance):
// interior is 0 < d < radius, border is d == radius. center itself is in neither.
func (b *Board) Disk(center model.Position, radius int) (interior, border []model.Position) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := center.Add(dx, dy)
			if !b.Contains(p) {
				continue
			}
			d := int(math.Sqrt(float64(dx*dx + dy*dy)))
			switch {
			case d < radius:
				interior = append(interior, p)
			case d == radius:
				border = append(border, p)
			}
		}
	}
	return interior, border
}

func sortPositions(ps []model.Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Y != ps[j].Y {
			return ps[i].Y < ps[j].Y
		}
		return ps[i].X < ps[j].X
	})
}
