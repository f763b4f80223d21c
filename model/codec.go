package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

var ErrMalformed = errors.New("malformed message")

func EncodeServerMessage(w io.Writer, m ServerMessage) error {
	return gob.NewEncoder(w).Encode(m)
}

func DecodeServerMessage(r io.Reader) (ServerMessage, error) {
	var m ServerMessage
	if err := gob.NewDecoder(r).Decode(&m); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func EncodeClientMessage(w io.Writer, m ClientMessage) error {
	return gob.NewEncoder(w).Encode(m)
}

// DecodeClientMessage reads one request. Undecodable payloads and unknown
// request kinds both yield ErrMalformed.
func DecodeClientMessage(r io.Reader) (ClientMessage, error) {
	var m ClientMessage
	if err := gob.NewDecoder(r).Decode(&m); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !m.Valid() {
		return ClientMessage{}, fmt.Errorf("%w: request kind %s", ErrMalformed, m.Kind.Name())
	}
	return m, nil
}
