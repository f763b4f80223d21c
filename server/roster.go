package server

import (
	"time"

	"github.com/zucenko/areaattack/model"
)

type Player struct {
	Id        int32
	Username  string
	Color     model.PlayerColor
	Position  model.Position
	Connected bool
	// FrozenAt is the game clock reading when the player got frozen.
	FrozenAt *time.Duration
	Killed   bool
}

func (p *Player) Frozen() bool {
	return p.FrozenAt != nil
}

func (p *Player) CanReveal() bool {
	return p.Connected && !p.Killed && !p.Frozen()
}

func (p *Player) Properties(host bool) model.PlayerProperties {
	return model.PlayerProperties{
		Id:       p.Id,
		Username: p.Username,
		Color:    p.Color,
		Position: p.Position,
		Host:     host,
		Left:     !p.Connected,
	}
}

// Roster keeps players in join order. Disconnected players stay listed once
// the game started so their tiles keep an owner.
type Roster struct {
	players map[int32]*Player
	order   []int32
	nextId  int32
	max     int
}

func NewRoster(maxPlayers int) *Roster {
	if maxPlayers > len(model.COLORS) {
		maxPlayers = len(model.COLORS)
	}
	return &Roster{
		players: make(map[int32]*Player),
		nextId:  1,
		max:     maxPlayers,
	}
}

func (r *Roster) Full() bool {
	return len(r.order) >= r.max
}

func (r *Roster) Add(username string) (*Player, error) {
	if r.Full() {
		return nil, ErrSessionClosed
	}
	color, ok := r.freeColor()
	if !ok {
		return nil, ErrSessionClosed
	}
	p := &Player{
		Id:        r.nextId,
		Username:  username,
		Color:     color,
		Connected: true,
	}
	r.nextId++
	r.players[p.Id] = p
	r.order = append(r.order, p.Id)
	return p, nil
}

// Remove forgets the player entirely and frees the color.
func (r *Roster) Remove(id int32) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Roster) Get(id int32) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Roster) All() []*Player {
	ps := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		ps = append(ps, r.players[id])
	}
	return ps
}

func (r *Roster) Connected() []*Player {
	ps := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.Connected {
			ps = append(ps, p)
		}
	}
	return ps
}

// Host is the earliest joined connected player, 0 when nobody is connected.
func (r *Roster) Host() int32 {
	for _, id := range r.order {
		if r.players[id].Connected {
			return id
		}
	}
	return 0
}

func (r *Roster) freeColor() (model.PlayerColor, bool) {
	used := make(map[model.PlayerColor]bool, len(r.players))
	for _, p := range r.players {
		used[p.Color] = true
	}
	for _, c := range model.COLORS {
		if !used[c] {
			return c, true
		}
	}
	return 0, false
}

// Project masks the authoritative tile at p for one viewer: unrevealed cells
// stay unknown and only the owner learns the neighbour mine count.
func Project(b *Board, p model.Position, viewer int32) model.ClientTile {
	t, ok := b.Get(p)
	if !ok {
		return model.ClientTile{Kind: model.TILE_UNKNOWN}
	}
	switch t.State {
	case TS_OWNED:
		ct := model.ClientTile{Kind: model.TILE_OWNED, Player: t.Owner}
		if viewer == t.Owner {
			ct.NumNeighbors = b.MineCount(p)
		}
		return ct
	case TS_HARD_MINE:
		return model.ClientTile{Kind: model.TILE_MINE}
	case TS_DESTROYED:
		return model.ClientTile{Kind: model.TILE_DESTROYED}
	default:
		return model.ClientTile{Kind: model.TILE_UNKNOWN}
	}
}
