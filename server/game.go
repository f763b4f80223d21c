package server

import (
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/areaattack/model"
)

// Outbox collects the messages one event produced, keyed by recipient.
type Outbox map[int32]*model.ServerMessage

func (o Outbox) To(id int32) *model.ServerMessage {
	m, ok := o[id]
	if !ok {
		m = &model.ServerMessage{}
		o[id] = m
	}
	return m
}

// Game is the state of one session. It is not safe for concurrent use: the
// owning GameSession loop is its only caller.
type Game struct {
	Cfg    Config
	Board  *Board
	Roster *Roster
	Log    *log.Entry

	stage        model.Stage
	clock        time.Duration
	stageClock   time.Duration
	timerRunning bool
	selections   map[int32]model.Position

	queue        []revealTile
	changed      map[model.Position]struct{}
	changedOrder []model.Position
	rng          *rand.Rand
	succeeded    bool
	everJoined   bool

	out Outbox
}

func NewGame(cfg Config, shape *Shape, seed int64) *Game {
	return &Game{
		Cfg:        cfg,
		Board:      NewBoard(shape),
		Roster:     NewRoster(cfg.MaxPlayers),
		Log:        log.NewEntry(log.StandardLogger()),
		stage:      model.STAGE_SELECTING,
		selections: make(map[int32]model.Position),
		changed:    make(map[model.Position]struct{}),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (g *Game) Stage() model.Stage {
	return g.stage
}

// Clock is the total time fed in by Tick.
func (g *Game) Clock() time.Duration {
	return g.clock
}

// StageClock is the time elapsed since STAGE1 began.
func (g *Game) StageClock() time.Duration {
	return g.stageClock
}

func (g *Game) Succeeded() bool {
	return g.succeeded
}

func (g *Game) Open() bool {
	return g.stage == model.STAGE_SELECTING && !g.Roster.Full()
}

// Done reports whether the session has nothing left to do.
func (g *Game) Done() bool {
	if g.stage == model.STAGE_FINISHING {
		return true
	}
	return g.everJoined && len(g.Roster.Connected()) == 0
}

func (g *Game) Selection(id int32) (model.Position, bool) {
	p, ok := g.selections[id]
	return p, ok
}

func (g *Game) Join(username string) (int32, Outbox, error) {
	g.begin()
	if g.stage != model.STAGE_SELECTING {
		return 0, nil, ErrSessionClosed
	}
	p, err := g.Roster.Add(username)
	if err != nil {
		return 0, nil, err
	}
	g.everJoined = true
	g.Log.WithFields(log.Fields{"player": p.Id, "color": p.Color.Name()}).Info("player joined")

	host := g.Roster.Host()
	m := g.out.To(p.Id)
	m.FieldShapes = append(m.FieldShapes, model.FieldShape{Name: g.Board.Shape.Name, Cells: g.Board.Shape.Cells})
	m.Self = append(m.Self, model.SelfChange{Id: p.Id, Color: p.Color, Position: p.Position})
	for _, peer := range g.Roster.Connected() {
		m.Players = append(m.Players, peer.Properties(peer.Id == host))
	}
	m.Transitions = append(m.Transitions, model.Transition{Stage: g.stage})
	for _, pos := range g.Board.Positions() {
		if ct := Project(g.Board, pos, p.Id); ct.Kind != model.TILE_UNKNOWN {
			m.Tiles = append(m.Tiles, model.TileChanged{Position: pos, To: ct})
		}
	}
	for _, peer := range g.Roster.Connected() {
		if sel, ok := g.selections[peer.Id]; ok {
			m.Tiles = append(m.Tiles, selectionTile(sel, peer.Id))
		}
	}

	props := p.Properties(p.Id == host)
	g.broadcast(func(id int32, m *model.ServerMessage) {
		if id != p.Id {
			m.Players = append(m.Players, props)
		}
	})
	return p.Id, g.end(), nil
}

// Leave handles a closed connection. Before the game starts the player is
// forgotten; afterwards their tiles stay as they are.
func (g *Game) Leave(id int32) Outbox {
	g.begin()
	p, ok := g.Roster.Get(id)
	if !ok || !p.Connected {
		return g.end()
	}
	hostBefore := g.Roster.Host()
	p.Connected = false
	g.Log.WithField("player", id).Info("player left")

	if g.stage == model.STAGE_SELECTING {
		if sel, had := g.selections[id]; had {
			delete(g.selections, id)
			g.broadcastTile(model.TileChanged{Position: sel, To: model.ClientTile{Kind: model.TILE_UNKNOWN}})
		}
		g.Roster.Remove(id)
	}

	left := p.Properties(false)
	g.broadcast(func(_ int32, m *model.ServerMessage) {
		m.Players = append(m.Players, left)
	})
	if host := g.Roster.Host(); host != 0 && host != hostBefore {
		hp, _ := g.Roster.Get(host)
		props := hp.Properties(true)
		g.broadcast(func(_ int32, m *model.ServerMessage) {
			m.Players = append(m.Players, props)
		})
	}
	return g.end()
}

// Request applies one client request. Anything illegal in the current state
// is dropped without a reply.
func (g *Game) Request(id int32, cm model.ClientMessage) Outbox {
	g.begin()
	p, ok := g.Roster.Get(id)
	if !ok || !p.Connected {
		return g.end()
	}
	switch cm.Kind {
	case model.REQ_START_GAME:
		if g.stage != model.STAGE_SELECTING || id != g.Roster.Host() {
			g.Log.WithField("player", id).Debug("start refused")
			break
		}
		g.start()
	case model.REQ_REVEAL:
		if g.stage == model.STAGE_SELECTING {
			g.selectStart(p, cm.Position)
			break
		}
		g.enqueue(revealTile{Position: cm.Position, Player: id})
		g.drain()
	case model.REQ_POSITION:
		p.Position = cm.Position
		rep := model.Reposition{Id: id, Position: cm.Position}
		g.broadcast(func(to int32, m *model.ServerMessage) {
			if to != id {
				m.Repositions = append(m.Repositions, rep)
			}
		})
	case model.REQ_COLOR:
		// colors are assigned on join; accepted and ignored
	default:
		g.Log.WithField("player", id).Warnf("unknown request %s", cm.Kind.Name())
	}
	return g.end()
}

func (g *Game) begin() {
	g.out = Outbox{}
}

// end projects every tile changed during the event for each connected player.
func (g *Game) end() Outbox {
	for _, pos := range g.changedOrder {
		for _, p := range g.Roster.Connected() {
			m := g.out.To(p.Id)
			m.Tiles = append(m.Tiles, model.TileChanged{Position: pos, To: Project(g.Board, pos, p.Id)})
		}
	}
	g.changedOrder = g.changedOrder[:0]
	for pos := range g.changed {
		delete(g.changed, pos)
	}
	out := g.out
	g.out = nil
	for id, m := range out {
		if m.Empty() {
			delete(out, id)
		}
	}
	return out
}

func (g *Game) markChanged(pos model.Position) {
	if _, ok := g.changed[pos]; ok {
		return
	}
	g.changed[pos] = struct{}{}
	g.changedOrder = append(g.changedOrder, pos)
}

func (g *Game) broadcast(f func(id int32, m *model.ServerMessage)) {
	for _, p := range g.Roster.Connected() {
		f(p.Id, g.out.To(p.Id))
	}
}

func (g *Game) broadcastTile(tc model.TileChanged) {
	g.broadcast(func(_ int32, m *model.ServerMessage) {
		m.Tiles = append(m.Tiles, tc)
	})
}

func (g *Game) send(id int32, f func(m *model.ServerMessage)) {
	if p, ok := g.Roster.Get(id); ok && p.Connected {
		f(g.out.To(id))
	}
}

func selectionTile(pos model.Position, owner int32) model.TileChanged {
	return model.TileChanged{Position: pos, To: model.ClientTile{Kind: model.TILE_OWNED, Player: owner}}
}
