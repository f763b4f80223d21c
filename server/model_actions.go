package server

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/areaattack/model"
)

const outgoingBuffer = 256

func NewGameServer(cfg Config, shapes *ShapePool) *GameServer {
	return &GameServer{
		Cfg:          cfg,
		Shapes:       shapes,
		GameSessions: make(map[uuid.UUID]*GameSession),
		GameRequests: make(chan GameRequest),
		Finished:     make(chan uuid.UUID),
		Stopped:      make(chan struct{}),
		Upgrader:     &websocket.Upgrader{},
	}
}

// HandleHttpCall serves /play and /play/:session. The connection is held
// until the player's session is over.
func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	timeout := 200 * time.Millisecond
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("HandleHttpCall - connection received")

		req := GameRequest{GameContextAwaiting: make(chan GameContextAwaiting, 1)}
		if raw := way.Param(r.Context(), "session"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				w.WriteHeader(HTTP_BAD_REQUEST)
				return
			}
			req.SessionId = &id
		}
		select {
		case s.GameRequests <- req:
		case <-time.After(timeout):
			log.Warn("GameRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		var gca GameContextAwaiting
		select {
		case gca = <-req.GameContextAwaiting:
			if gca.ResponseCode != GAME_READY {
				w.WriteHeader(gca.ResponseCode.ToHttp())
				return
			}
		case <-time.After(timeout):
			log.Warn("HandleHttpCall GameContextAwaiting <- TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the client
			log.Warnf("HandleHttpCall websocket upgrade err %v", err)
			return
		}
		defer con.Close()

		username := r.URL.Query().Get("name")
		if username == "" {
			username = "player"
		}
		pcr := PlayerConnectRequest{
			Con:      con,
			Username: username,
			GameOver: make(chan struct{}),
			Result:   make(chan error, 1),
		}
		gs := gca.GameSession
		select {
		case gs.PlayerConnectRequests <- pcr:
		case <-gs.Done:
			closeWith(con, websocket.CloseTryAgainLater, ErrSessionClosed.Error())
			return
		case <-time.After(timeout):
			closeWith(con, websocket.CloseTryAgainLater, "timeout")
			return
		}
		if err := <-pcr.Result; err != nil {
			log.WithField("session", gs.Id).Infof("join refused: %v", err)
			closeWith(con, websocket.ClosePolicyViolation, err.Error())
			return
		}
		<-pcr.GameOver
	}
}

func closeWith(con *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = con.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// Loop owns the session registry. It only matches players to sessions and
// forgets finished ones; game state lives in each GameSession loop.
func (s *GameServer) Loop(ctx context.Context) {
	log.Info("GameServer.Loop starting")
	defer close(s.Stopped)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case <-ctx.Done():
			log.Info("GameServer.Loop stopped")
			return
		case id := <-s.Finished:
			delete(s.GameSessions, id)
			log.WithField("session", id).Info("session removed")
		case gameReq := <-s.GameRequests:
			gameReq.GameContextAwaiting <- s.find(gameReq, rng)
		}
	}
}

func (s *GameServer) find(req GameRequest, rng *rand.Rand) GameContextAwaiting {
	if req.SessionId != nil {
		gs, ok := s.GameSessions[*req.SessionId]
		switch {
		case !ok:
			return GameContextAwaiting{ResponseCode: GAME_NOT_FOUND}
		case gs.State() != GS_OPEN:
			return GameContextAwaiting{ResponseCode: GAME_CLOSED}
		}
		return GameContextAwaiting{ResponseCode: GAME_READY, GameSession: gs}
	}
	for _, gs := range s.GameSessions {
		if gs.State() == GS_OPEN {
			return GameContextAwaiting{ResponseCode: GAME_READY, GameSession: gs}
		}
	}
	shape, err := s.Shapes.Random(rng)
	if err != nil {
		log.Errorf("cannot create session: %v", err)
		return GameContextAwaiting{ResponseCode: GAME_NOT_FOUND}
	}
	gs := s.NewGameSession(shape, rng.Int63())
	s.GameSessions[gs.Id] = gs
	go gs.Loop()
	return GameContextAwaiting{ResponseCode: GAME_READY, GameSession: gs}
}

func (s *GameServer) NewGameSession(shape *Shape, seed int64) *GameSession {
	id := uuid.New()
	entry := log.WithFields(log.Fields{"session": id, "shape": shape.Name})
	game := NewGame(s.Cfg, shape, seed)
	game.Log = entry
	entry.Info("create GameSession")
	return &GameSession{
		Id:                    id,
		Game:                  game,
		PlayerSessions:        make(map[int32]*PlayerSession),
		Events:                make(chan PlayerEvent, outgoingBuffer),
		PlayerConnectRequests: make(chan PlayerConnectRequest),
		Done:                  make(chan struct{}),
		server:                s,
		log:                   entry,
	}
}

// Loop is the only goroutine touching gs.Game.
func (gs *GameSession) Loop() {
	gs.log.Info("GameSession.Loop start")
	ticker := time.NewTicker(gs.Game.Cfg.TickInterval)
	defer ticker.Stop()
	gs.lastTick = time.Now()
	for {
		var out Outbox
		select {
		case pcr := <-gs.PlayerConnectRequests:
			out = gs.addPlayer(pcr)
		case pe := <-gs.Events:
			switch pe.Kind {
			case EV_REQUEST:
				out = gs.Game.Request(pe.Player, pe.Request)
			case EV_DISCONNECT:
				out = gs.removePlayer(pe.Player)
			}
		case now := <-ticker.C:
			out = gs.Game.Tick(now.Sub(gs.lastTick))
			gs.lastTick = now
		}
		// the registry must see the new state before any player does
		gs.updateState()
		gs.dispatch(out)
		if gs.Game.Done() {
			gs.shutdown()
			return
		}
	}
}

func (gs *GameSession) updateState() {
	switch {
	case gs.Game.Done():
		gs.state.Store(int32(GS_OVER))
	case gs.Game.Open():
		gs.state.Store(int32(GS_OPEN))
	default:
		gs.state.Store(int32(GS_PLAY))
	}
}

func (gs *GameSession) shutdown() {
	gs.log.WithField("succeeded", gs.Game.Succeeded()).Info("GameSession.Loop ended")
	for id := range gs.PlayerSessions {
		gs.dropPlayerSession(id)
	}
	close(gs.Done)
	if gs.server != nil {
		select {
		case gs.server.Finished <- gs.Id:
		case <-gs.server.Stopped:
		}
	}
}

func (gs *GameSession) dispatch(out Outbox) {
	for id, m := range out {
		ps, ok := gs.PlayerSessions[id]
		if !ok {
			continue
		}
		select {
		case ps.MessagesToSend <- *m:
		default:
			// a client that cannot keep up would miss tile deltas; cut it off
			gs.log.WithField("player", id).Warn("outgoing queue FULL, closing connection")
			ps.Conn.Close()
		}
	}
}

func (gs *GameSession) addPlayer(pcr PlayerConnectRequest) Outbox {
	id, out, err := gs.Game.Join(pcr.Username)
	if err != nil {
		pcr.Result <- err
		return nil
	}
	conn := pcr.Con
	ps := &PlayerSession{
		State:          PS_PLAY,
		Id:             id,
		GameSession:    gs,
		Conn:           conn,
		GameOver:       pcr.GameOver,
		MessagesToSend: make(chan model.ServerMessage, outgoingBuffer),
	}
	conn.SetPingHandler(
		func(message string) error {
			err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
			ps.DebugLastPing = time.Now()
			ps.DebugPings++
			if err == websocket.ErrCloseSent {
				return nil
			} else if e, ok := err.(net.Error); ok && e.Timeout() {
				return nil
			}
			return err
		})
	gs.PlayerSessions[id] = ps
	go ps.LoopChannelRead()
	go ps.LoopChannelWrite()
	pcr.Result <- nil
	return out
}

func (gs *GameSession) removePlayer(id int32) Outbox {
	if _, ok := gs.PlayerSessions[id]; !ok {
		return nil
	}
	gs.dropPlayerSession(id)
	return gs.Game.Leave(id)
}

// dropPlayerSession lets the writer flush what is queued and then end.
func (gs *GameSession) dropPlayerSession(id int32) {
	ps := gs.PlayerSessions[id]
	ps.State = PS_GONE
	close(ps.MessagesToSend)
	delete(gs.PlayerSessions, id)
}

// post hands an event to the session loop unless the loop is gone.
func (ps *PlayerSession) post(pe PlayerEvent) bool {
	select {
	case ps.GameSession.Events <- pe:
		return true
	case <-ps.GameSession.Done:
		return false
	}
}

func (ps *PlayerSession) LoopChannelRead() {
	entry := ps.GameSession.log.WithField("player", ps.Id)
	entry.Debug("LoopChannelRead STARTED")
	for {
		_, r, err := ps.Conn.NextReader()
		if err != nil {
			entry.Infof("LoopChannelRead connection closed: %v", err)
			ps.post(PlayerEvent{Kind: EV_DISCONNECT, Player: ps.Id})
			break
		}
		cm, err := model.DecodeClientMessage(r)
		if err != nil {
			entry.Warnf("dropping message: %v", err)
			continue
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++
		if !ps.post(PlayerEvent{Kind: EV_REQUEST, Player: ps.Id, Request: cm}) {
			break
		}
	}
	// the ping handler runs inside NextReader, on this goroutine
	entry.WithFields(log.Fields{
		"in":          ps.DebugInMessages,
		"lastMessage": ps.DebugLastMessage,
		"pings":       ps.DebugPings,
		"lastPing":    ps.DebugLastPing,
	}).Debug("LoopChannelRead ENDED")
}

// LoopChannelWrite only consumes, so the session never blocks on a slow
// socket. It ends when the session closes MessagesToSend.
func (ps *PlayerSession) LoopChannelWrite() {
	entry := ps.GameSession.log.WithField("player", ps.Id)
	defer close(ps.GameOver)
	for mes := range ps.MessagesToSend {
		if err := ps.write(mes); err != nil {
			entry.WithField("out", ps.DebugOutMessages).Warnf("LoopChannelWrite cant write %v", err)
			ps.Conn.Close()
			for range ps.MessagesToSend {
			}
			return
		}
		ps.DebugOutMessages++
	}
	closeWith(ps.Conn, websocket.CloseNormalClosure, "game over")
	entry.WithField("out", ps.DebugOutMessages).Debug("LoopChannelWrite ENDED")
}

func (ps *PlayerSession) write(mes model.ServerMessage) error {
	w, err := ps.Conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := model.EncodeServerMessage(w, mes); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
