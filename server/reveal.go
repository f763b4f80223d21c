package server

import (
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/areaattack/model"
)

// revealTile is one unit of work. Chained requests are produced by the engine
// itself (cascades, border re-claims) and skip the frozen/killed check.
type revealTile struct {
	Position model.Position
	Player   int32
	Chained  bool
}

func (g *Game) enqueue(r revealTile) {
	g.queue = append(g.queue, r)
}

// drain processes the queue in FIFO order until it is empty. Follow-up
// reveals are appended to the same queue, so cascades never recurse.
func (g *Game) drain() {
	for len(g.queue) > 0 {
		r := g.queue[0]
		g.queue = g.queue[1:]
		g.reveal(r)
		if g.Board.RemainingBlank() == 0 && revealAllowed(g.stage) {
			g.finish(true)
		}
	}
	g.queue = nil
}

func (g *Game) reveal(r revealTile) {
	if !revealAllowed(g.stage) {
		return
	}
	p, ok := g.Roster.Get(r.Player)
	if !ok {
		return
	}
	if !r.Chained && !p.CanReveal() {
		g.Log.WithFields(log.Fields{"player": p.Id, "frozen": p.Frozen(), "killed": p.Killed}).Debug("reveal dropped")
		return
	}
	t, ok := g.Board.Get(r.Position)
	if !ok {
		return
	}
	switch t.State {
	case TS_EMPTY:
		g.Board.Set(r.Position, Tile{State: TS_OWNED, Owner: p.Id})
		g.markChanged(r.Position)
		if g.Board.MineCount(r.Position) > 0 {
			return
		}
		for _, n := range g.Board.Neighbors(r.Position) {
			if nt, _ := g.Board.Get(n); nt.State == TS_EMPTY {
				g.enqueue(revealTile{Position: n, Player: p.Id, Chained: true})
			}
		}
	case TS_MINE:
		g.hitMine(p, r.Position)
	}
}

func (g *Game) hitMine(p *Player, pos model.Position) {
	entry := g.Log.WithFields(log.Fields{"player": p.Id, "pos": pos.String(), "stage": g.stage.Name()})
	switch g.stage {
	case model.STAGE_STAGE1:
		g.Board.Set(pos, Tile{State: TS_HARD_MINE})
		g.markChanged(pos)
		at := g.clock
		p.FrozenAt = &at
		entry.Info("player frozen")
		g.send(p.Id, func(m *model.ServerMessage) {
			m.Freezes = append(m.Freezes, model.Freeze{Duration: g.Cfg.FreezeDuration})
		})
	case model.STAGE_ATTACK:
		entry.Info("attack")
		g.attack(pos)
	case model.STAGE_LOCK:
		g.Board.Set(pos, Tile{State: TS_HARD_MINE})
		g.markChanged(pos)
		p.Killed = true
		entry.Info("player killed")
		g.send(p.Id, func(m *model.ServerMessage) {
			m.Kills = append(m.Kills, model.Killed{Id: p.Id})
		})
	}
}

// attack destroys the hit cell, re-rolls the disk around it and clears its
// border. Owners of cleared border cells get their claim re-revealed.
func (g *Game) attack(center model.Position) {
	g.Board.Set(center, Tile{State: TS_DESTROYED})
	g.markChanged(center)
	reset := []model.Position{center}

	interior, border := g.Board.Disk(center, g.Cfg.AttackRadius)
	for _, pos := range interior {
		if t, _ := g.Board.Get(pos); t.State == TS_DESTROYED {
			continue
		}
		if g.rng.Float64() < g.Cfg.AttackMineChance {
			g.Board.Set(pos, Tile{State: TS_MINE})
		} else {
			g.Board.Set(pos, Tile{State: TS_EMPTY})
		}
		g.markChanged(pos)
		reset = append(reset, pos)
	}
	for _, pos := range border {
		t, _ := g.Board.Get(pos)
		if t.State == TS_DESTROYED {
			continue
		}
		g.Board.Set(pos, Tile{State: TS_EMPTY})
		g.markChanged(pos)
		reset = append(reset, pos)
		if t.State == TS_OWNED {
			g.enqueue(revealTile{Position: pos, Player: t.Owner, Chained: true})
		}
	}

	// owned tiles next to any reset cell may show a stale mine count
	for _, pos := range reset {
		for _, n := range g.Board.Neighbors(pos) {
			if t, _ := g.Board.Get(n); t.State == TS_OWNED {
				g.markChanged(n)
			}
		}
	}
}
