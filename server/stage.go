package server

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/areaattack/model"
)

// revealAllowed covers ordinary reveals; SELECTING has its own path.
func revealAllowed(s model.Stage) bool {
	switch s {
	case model.STAGE_STAGE1, model.STAGE_ATTACK, model.STAGE_LOCK:
		return true
	default:
		return false
	}
}

// selectStart records a starting cell. It must lie on the board and keep the
// minimum distance to every other player's selection.
func (g *Game) selectStart(p *Player, pos model.Position) {
	if !g.Board.Contains(pos) {
		return
	}
	minDist := g.Cfg.SelectionMinDistance
	for id, other := range g.selections {
		if id == p.Id {
			continue
		}
		if float64(pos.DistanceSquared(other)) < minDist*minDist {
			g.Log.WithFields(log.Fields{"player": p.Id, "pos": pos.String(), "near": id}).Debug("selection too close")
			return
		}
	}
	prev, had := g.selections[p.Id]
	if had && prev == pos {
		return
	}
	g.selections[p.Id] = pos
	if had {
		g.broadcastTile(model.TileChanged{Position: prev, To: model.ClientTile{Kind: model.TILE_UNKNOWN}})
	}
	g.broadcastTile(selectionTile(pos, p.Id))
}

// start leaves SELECTING: mines go everywhere except around the chosen
// starts, then every start is revealed for its player.
func (g *Game) start() {
	exclude := make(map[model.Position]struct{})
	for _, sel := range g.selections {
		exclude[sel] = struct{}{}
		for _, n := range g.Board.Neighbors(sel) {
			exclude[n] = struct{}{}
		}
	}
	mines := g.Board.PlaceMines(exclude, g.Cfg.MineDensity, g.rng)
	g.Log.WithFields(log.Fields{"mines": mines, "blank": g.Board.RemainingBlank()}).Info("game started")

	g.transition(model.STAGE_STAGE1)
	g.timerRunning = true

	for _, p := range g.Roster.All() {
		if sel, ok := g.selections[p.Id]; ok {
			g.enqueue(revealTile{Position: sel, Player: p.Id})
		}
	}
	g.selections = make(map[int32]model.Position)
	g.drain()
}

// Tick advances the game clock. Freezes expire and stages move on only here.
func (g *Game) Tick(delta time.Duration) Outbox {
	g.begin()
	if delta < 0 {
		delta = 0
	}
	g.clock += delta
	for _, p := range g.Roster.All() {
		if p.FrozenAt != nil && g.clock >= *p.FrozenAt+g.Cfg.FreezeDuration {
			p.FrozenAt = nil
		}
	}
	if !g.timerRunning {
		return g.end()
	}
	g.stageClock += delta
	for g.timerRunning {
		next, at := g.nextStage()
		if g.stageClock < at {
			break
		}
		if next == model.STAGE_FINISHING {
			g.finish(false)
			break
		}
		g.transition(next)
	}
	return g.end()
}

// nextStage is the timed successor of the current stage and when it starts.
func (g *Game) nextStage() (model.Stage, time.Duration) {
	switch g.stage {
	case model.STAGE_STAGE1:
		return model.STAGE_ATTACK, g.Cfg.AttackStartsAt()
	case model.STAGE_ATTACK:
		return model.STAGE_LOCK, g.Cfg.LockStartsAt()
	default:
		return model.STAGE_FINISHING, g.Cfg.FinishingStartsAt()
	}
}

func (g *Game) transition(s model.Stage) {
	if s <= g.stage {
		return
	}
	g.Log.WithFields(log.Fields{"from": g.stage.Name(), "to": s.Name()}).Info("stage transition")
	g.stage = s
	g.broadcast(func(_ int32, m *model.ServerMessage) {
		m.Transitions = append(m.Transitions, model.Transition{Stage: s})
	})
}

func (g *Game) finish(succeeded bool) {
	if g.stage == model.STAGE_FINISHING {
		return
	}
	g.transition(model.STAGE_FINISHING)
	g.timerRunning = false
	g.succeeded = succeeded
	g.queue = nil
	g.broadcast(func(_ int32, m *model.ServerMessage) {
		m.Finished = append(m.Finished, model.Finished{Succeeded: succeeded})
	})
}
