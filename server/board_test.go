package server

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/areaattack/model"
)

func pos(x, y int) model.Position {
	return model.Position{X: x, Y: y}
}

func TestNewBoard(t *testing.T) {
	b := NewBoard(RectShape("rect", 10, 10))
	assert.Equal(t, 100, b.Size())
	assert.Equal(t, 100, b.RemainingBlank())

	tile, ok := b.Get(pos(3, 4))
	require.True(t, ok)
	assert.Equal(t, TS_EMPTY, tile.State)

	_, ok = b.Get(pos(10, 0))
	assert.False(t, ok)
	_, ok = b.Get(pos(-1, 5))
	assert.False(t, ok)
}

func TestNeighbors(t *testing.T) {
	b := NewBoard(RectShape("rect", 10, 10))
	cases := []struct {
		name string
		at   model.Position
		want int
	}{
		{"corner", pos(0, 0), 3},
		{"edge", pos(0, 5), 5},
		{"middle", pos(5, 5), 8},
		{"outside", pos(20, 20), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, b.Neighbors(tc.at), tc.want)
		})
	}
}

func TestNeighborsIrregularShape(t *testing.T) {
	shape, err := ParseShape("holes", strings.NewReader("###\n#.#\n###\n"))
	require.NoError(t, err)
	b := NewBoard(shape)
	assert.Equal(t, 8, b.Size())
	assert.False(t, b.Contains(pos(1, 1)))
	assert.Len(t, b.Neighbors(pos(0, 0)), 2)
	assert.Len(t, b.Neighbors(pos(1, 0)), 4)
}

func TestNeighborsDeterministic(t *testing.T) {
	b := NewBoard(RectShape("rect", 5, 5))
	assert.Equal(t, b.Neighbors(pos(2, 2)), b.Neighbors(pos(2, 2)))
	assert.Equal(t, []model.Position{
		pos(1, 1), pos(2, 1), pos(3, 1),
		pos(1, 2), pos(3, 2),
		pos(1, 3), pos(2, 3), pos(3, 3),
	}, b.Neighbors(pos(2, 2)))
}

func TestSetKeepsRemainingBlank(t *testing.T) {
	b := NewBoard(RectShape("rect", 3, 3))
	require.True(t, b.Set(pos(0, 0), Tile{State: TS_MINE}))
	assert.Equal(t, 8, b.RemainingBlank())
	require.True(t, b.Set(pos(1, 1), Tile{State: TS_OWNED, Owner: 1}))
	assert.Equal(t, 7, b.RemainingBlank())
	require.True(t, b.Set(pos(0, 0), Tile{State: TS_EMPTY}))
	assert.Equal(t, 8, b.RemainingBlank())
	assert.False(t, b.Set(pos(5, 5), Tile{State: TS_EMPTY}))

	b.Set(pos(2, 2), Tile{State: TS_HARD_MINE, Owner: 3})
	tile, _ := b.Get(pos(2, 2))
	assert.Equal(t, int32(0), tile.Owner)
}

func TestMineCount(t *testing.T) {
	b := NewBoard(RectShape("rect", 3, 3))
	b.Set(pos(0, 0), Tile{State: TS_MINE})
	b.Set(pos(2, 2), Tile{State: TS_HARD_MINE})
	b.Set(pos(2, 0), Tile{State: TS_DESTROYED})
	assert.Equal(t, 2, b.MineCount(pos(1, 1)))
	assert.Equal(t, 1, b.MineCount(pos(1, 0)))
	assert.Equal(t, 0, b.MineCount(pos(0, 2)))
}

func TestPlaceMines(t *testing.T) {
	b := NewBoard(RectShape("rect", 10, 10))
	exclude := map[model.Position]struct{}{}
	for _, p := range append(b.Neighbors(pos(5, 5)), pos(5, 5)) {
		exclude[p] = struct{}{}
	}
	placed := b.PlaceMines(exclude, 0.3, rand.New(rand.NewSource(7)))
	assert.Equal(t, 27, placed) // round(0.3 * 91)
	assert.Equal(t, 100-placed, b.RemainingBlank())

	mines := 0
	for _, p := range b.Positions() {
		tile, _ := b.Get(p)
		if tile.State == TS_MINE {
			mines++
			_, excluded := exclude[p]
			assert.False(t, excluded, "mine placed at excluded %v", p)
		}
	}
	assert.Equal(t, placed, mines)
}

func TestPlaceMinesSeeded(t *testing.T) {
	layout := func(seed int64) []model.Position {
		b := NewBoard(RectShape("rect", 8, 8))
		b.PlaceMines(nil, 0.25, rand.New(rand.NewSource(seed)))
		var mines []model.Position
		for _, p := range b.Positions() {
			if tile, _ := b.Get(p); tile.State == TS_MINE {
				mines = append(mines, p)
			}
		}
		return mines
	}
	assert.Equal(t, layout(3), layout(3))
	assert.Len(t, layout(4), 16)
}

func TestDisk(t *testing.T) {
	b := NewBoard(RectShape("rect", 20, 20))
	center := pos(10, 10)
	interior, border := b.Disk(center, 2)
	assert.Len(t, interior, 8)
	for _, p := range interior {
		assert.Less(t, p.DistanceSquared(center), 4)
		assert.NotEqual(t, center, p)
	}
	assert.NotEmpty(t, border)
	for _, p := range border {
		d2 := p.DistanceSquared(center)
		assert.True(t, d2 >= 4 && d2 < 9, "border %v at d2=%d", p, d2)
	}

	// clipped by the board edge
	interior, _ = b.Disk(pos(0, 0), 2)
	assert.Len(t, interior, 3)
}
