package server

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/areaattack/model"
)

type GameServer struct {
	Cfg          Config
	Shapes       *ShapePool
	GameSessions map[uuid.UUID]*GameSession
	GameRequests chan GameRequest
	Finished     chan uuid.UUID
	// Stopped is closed when Loop returns.
	Stopped  chan struct{}
	Upgrader *websocket.Upgrader
}

type GameSessionState int32

const (
	GS_OPEN GameSessionState = iota
	GS_PLAY
	GS_OVER
)

type GameSession struct {
	Id                    uuid.UUID
	Game                  *Game
	PlayerSessions        map[int32]*PlayerSession
	Events                chan PlayerEvent
	PlayerConnectRequests chan PlayerConnectRequest
	// Done is closed when the loop exits.
	Done chan struct{}

	state    atomic.Int32
	server   *GameServer
	log      *log.Entry
	lastTick time.Time
}

// State may be read from any goroutine.
func (gs *GameSession) State() GameSessionState {
	return GameSessionState(gs.state.Load())
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_GONE
)

type PlayerSession struct {
	State       PlayerSessionState
	Id          int32
	GameSession *GameSession
	Conn        *websocket.Conn
	GameOver    chan struct{}

	MessagesToSend chan model.ServerMessage

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}
