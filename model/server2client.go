package model

import "time"

// ServerMessage batches every update produced for one player by one event.
type ServerMessage struct {
	FieldShapes []FieldShape
	Players     []PlayerProperties
	Self        []SelfChange
	Tiles       []TileChanged
	Repositions []Reposition
	Transitions []Transition
	Freezes     []Freeze
	Kills       []Killed
	Finished    []Finished
}

func (m *ServerMessage) Empty() bool {
	return len(m.FieldShapes) == 0 &&
		len(m.Players) == 0 &&
		len(m.Self) == 0 &&
		len(m.Tiles) == 0 &&
		len(m.Repositions) == 0 &&
		len(m.Transitions) == 0 &&
		len(m.Freezes) == 0 &&
		len(m.Kills) == 0 &&
		len(m.Finished) == 0
}

type FieldShape struct {
	Name  string
	Cells []Position
}

type PlayerProperties struct {
	Id       int32
	Username string
	Color    PlayerColor
	Position Position
	Host     bool
	Left     bool
}

type SelfChange struct {
	Id       int32
	Color    PlayerColor
	Position Position
}

type TileChanged struct {
	Position Position
	To       ClientTile
}

type Reposition struct {
	Id       int32
	Position Position
}

type Transition struct {
	Stage Stage
}

type Freeze struct {
	Duration time.Duration
}

type Killed struct {
	Id int32
}

type Finished struct {
	Succeeded bool
}
