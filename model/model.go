package model

import "fmt"

type Position struct {
	X, Y int
}

func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// DistanceSquared avoids float math for range checks.
func (p Position) DistanceSquared(o Position) int {
	dx, dy := p.X-o.X, p.Y-o.Y
	return dx*dx + dy*dy
}

type Stage int

const (
	STAGE_INACTIVE Stage = iota
	STAGE_SELECTING
	STAGE_STAGE1
	STAGE_ATTACK
	STAGE_LOCK
	STAGE_FINISHING
)

func (s Stage) Name() string {
	switch s {
	case STAGE_INACTIVE:
		return "INACTIVE"
	case STAGE_SELECTING:
		return "SELECTING"
	case STAGE_STAGE1:
		return "STAGE1"
	case STAGE_ATTACK:
		return "ATTACK"
	case STAGE_LOCK:
		return "LOCK"
	case STAGE_FINISHING:
		return "FINISHING"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

type PlayerColor int

const (
	COLOR_RED PlayerColor = iota
	COLOR_GREEN
	COLOR_BLUE
	COLOR_YELLOW
)

// COLORS is ordered by assignment priority.
var COLORS = []PlayerColor{COLOR_RED, COLOR_GREEN, COLOR_BLUE, COLOR_YELLOW}

func (c PlayerColor) Name() string {
	switch c {
	case COLOR_RED:
		return "RED"
	case COLOR_GREEN:
		return "GREEN"
	case COLOR_BLUE:
		return "BLUE"
	case COLOR_YELLOW:
		return "YELLOW"
	default:
		return fmt.Sprintf("N/A(%d)", c)
	}
}

type ClientTileKind int

const (
	TILE_UNKNOWN ClientTileKind = iota
	TILE_OWNED
	TILE_MINE
	TILE_FLAG
	TILE_DESTROYED
)

func (k ClientTileKind) Name() string {
	switch k {
	case TILE_UNKNOWN:
		return "UNKNOWN"
	case TILE_OWNED:
		return "OWNED"
	case TILE_MINE:
		return "MINE"
	case TILE_FLAG:
		return "FLAG"
	case TILE_DESTROYED:
		return "DESTROYED"
	default:
		return fmt.Sprintf("N/A(%d)", k)
	}
}

// ClientTile is what one viewer knows about a cell. Player and NumNeighbors
// are meaningful only for TILE_OWNED.
type ClientTile struct {
	Kind         ClientTileKind
	Player       int32
	NumNeighbors int
}
