package model

import "fmt"

type RequestKind int

const (
	REQ_START_GAME RequestKind = iota + 1
	REQ_REVEAL
	REQ_POSITION
	REQ_COLOR
)

func (k RequestKind) Name() string {
	switch k {
	case REQ_START_GAME:
		return "START_GAME"
	case REQ_REVEAL:
		return "REVEAL"
	case REQ_POSITION:
		return "POSITION"
	case REQ_COLOR:
		return "COLOR"
	default:
		return fmt.Sprintf("N/A(%d)", k)
	}
}

// ClientMessage is one player request. Position is used by REQ_REVEAL and
// REQ_POSITION, Color by REQ_COLOR.
type ClientMessage struct {
	Kind     RequestKind
	Position Position
	Color    PlayerColor
}

func (cm ClientMessage) Valid() bool {
	return cm.Kind >= REQ_START_GAME && cm.Kind <= REQ_COLOR
}

func StartGame() ClientMessage {
	return ClientMessage{Kind: REQ_START_GAME}
}

func Reveal(p Position) ClientMessage {
	return ClientMessage{Kind: REQ_REVEAL, Position: p}
}

func MoveCursor(p Position) ClientMessage {
	return ClientMessage{Kind: REQ_POSITION, Position: p}
}
