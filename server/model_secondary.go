package server

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zucenko/areaattack/model"
)

const HTTP_SUCCESS = 200
const HTTP_BAD_REQUEST = 400
const HTTP_NOT_FOUND = 404
const HTTP_TIMEOUT = 408
const HTTP_SERVER_ERR = 503

var (
	ErrSessionClosed = errors.New("session closed to new players")
	ErrUnknownShape  = errors.New("unknown field shape")
	ErrEmptyShape    = errors.New("field shape has no cells")
	ErrNoShapes      = errors.New("no field shapes loaded")
)

type ResponseCode int

const (
	GAME_READY ResponseCode = iota
	GAME_NOT_FOUND
	GAME_CLOSED
)

func (h ResponseCode) ToHttp() int {
	switch h {
	case GAME_READY:
		return HTTP_SUCCESS
	case GAME_NOT_FOUND:
		return HTTP_NOT_FOUND
	case GAME_CLOSED:
		return HTTP_BAD_REQUEST
	default:
		panic(h)
	}
}

func (gss GameSessionState) Name() string {
	switch gss {
	case GS_OPEN:
		return "GS_OPEN"
	case GS_PLAY:
		return "GS_PLAY"
	case GS_OVER:
		return "GS_OVER"
	default:
		return fmt.Sprintf("n/a:%d", gss)
	}
}

func (ps PlayerSessionState) Name() string {
	switch ps {
	case PS_NEW:
		return "NEW"
	case PS_PLAY:
		return "PLAY"
	case PS_GONE:
		return "GONE"
	default:
		return "N/A"
	}
}

type GameContextAwaiting struct {
	ResponseCode ResponseCode
	GameSession  *GameSession
}

// GameRequest asks the registry for a session. A nil SessionId means any
// session that still accepts players.
type GameRequest struct {
	SessionId           *uuid.UUID
	GameContextAwaiting chan GameContextAwaiting
}

type PlayerConnectRequest struct {
	Con      *websocket.Conn
	Username string
	GameOver chan struct{}
	Result   chan error
}

type PlayerEventKind int

const (
	EV_REQUEST PlayerEventKind = iota + 1
	EV_DISCONNECT
)

// PlayerEvent travels on the single per-session stream, so a disconnect is
// always handled after the requests the same player sent before it.
type PlayerEvent struct {
	Kind    PlayerEventKind
	Player  int32
	Request model.ClientMessage
}
