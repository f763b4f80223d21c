package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/areaattack/model"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := testConfig()
	cfg.TickInterval = 10 * time.Millisecond
	gs := NewGameServer(cfg, NewShapePool(RectShape("rect", 12, 12)))
	ctx, cancel := context.WithCancel(context.Background())
	go gs.Loop(ctx)

	router := way.NewRouter()
	router.HandleFunc("GET", "/play", gs.HandleHttpCall())
	router.HandleFunc("GET", "/play/:session", gs.HandleHttpCall())
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	con, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { con.Close() })
	return con
}

func readMessage(t *testing.T, con *websocket.Conn) model.ServerMessage {
	t.Helper()
	require.NoError(t, con.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := con.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, kind)
	m, err := model.DecodeServerMessage(bytes.NewReader(data))
	require.NoError(t, err)
	return m
}

func send(t *testing.T, con *websocket.Conn, cm model.ClientMessage) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, model.EncodeClientMessage(&buf, cm))
	require.NoError(t, con.WriteMessage(websocket.BinaryMessage, buf.Bytes()))
}

func TestPlayOverWebsocket(t *testing.T) {
	srv := startTestServer(t)
	alice := dial(t, srv, "/play?name=alice")

	first := readMessage(t, alice)
	require.Len(t, first.FieldShapes, 1)
	assert.Equal(t, "rect", first.FieldShapes[0].Name)
	require.Len(t, first.Self, 1)
	assert.Equal(t, model.COLOR_RED, first.Self[0].Color)
	assert.Equal(t, []model.Transition{{Stage: model.STAGE_SELECTING}}, first.Transitions)
	require.Len(t, first.Players, 1)
	assert.Equal(t, "alice", first.Players[0].Username)
	assert.True(t, first.Players[0].Host)

	// the second player lands in the same open session
	bob := dial(t, srv, "/play?name=bob")
	snapshot := readMessage(t, bob)
	assert.Len(t, snapshot.Players, 2)
	assert.Equal(t, model.COLOR_GREEN, snapshot.Self[0].Color)
	joined := readMessage(t, alice)
	require.Len(t, joined.Players, 1)
	assert.Equal(t, "bob", joined.Players[0].Username)

	// garbage is dropped and the connection survives
	require.NoError(t, alice.WriteMessage(websocket.BinaryMessage, []byte{0xde, 0xad}))
	send(t, alice, model.Reveal(model.Position{X: 2, Y: 2}))
	sel := readMessage(t, bob)
	require.Len(t, sel.Tiles, 1)
	assert.Equal(t, model.Position{X: 2, Y: 2}, sel.Tiles[0].Position)
	readMessage(t, alice)

	send(t, alice, model.StartGame())
	started := readMessage(t, bob)
	assert.Equal(t, []model.Transition{{Stage: model.STAGE_STAGE1}}, started.Transitions)
	assert.NotEmpty(t, started.Tiles, "bob sees alice's starting area")

	// a running game takes nobody new, so carol gets a fresh session
	carol := dial(t, srv, "/play?name=carol")
	first = readMessage(t, carol)
	assert.Equal(t, []model.Transition{{Stage: model.STAGE_SELECTING}}, first.Transitions)
	require.Len(t, first.Players, 1)
	assert.True(t, first.Players[0].Host)
}

func TestPlayUnknownSession(t *testing.T) {
	srv := startTestServer(t)

	res, err := http.Get(srv.URL + "/play/" + uuid.NewString())
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, HTTP_NOT_FOUND, res.StatusCode)

	res, err = http.Get(srv.URL + "/play/not-a-uuid")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, HTTP_BAD_REQUEST, res.StatusCode)
}

func TestSessionAppliesRequestsBeforeDisconnect(t *testing.T) {
	registry := NewGameServer(testConfig(), NewShapePool(RectShape("rect", 5, 5)))
	close(registry.Stopped)
	gs := registry.NewGameSession(RectShape("rect", 5, 5), 1)

	id, _, err := gs.Game.Join("a")
	require.NoError(t, err)
	startBare(gs.Game, model.STAGE_STAGE1, pos(0, 0))
	messages := make(chan model.ServerMessage, outgoingBuffer)
	gs.PlayerSessions[id] = &PlayerSession{State: PS_PLAY, Id: id, GameSession: gs, MessagesToSend: messages}

	// both events are queued before the loop runs
	gs.Events <- PlayerEvent{Kind: EV_REQUEST, Player: id, Request: model.Reveal(pos(1, 1))}
	gs.Events <- PlayerEvent{Kind: EV_DISCONNECT, Player: id}
	go gs.Loop()

	select {
	case <-gs.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after its only player left")
	}
	assert.Equal(t, Tile{State: TS_OWNED, Owner: id}, tileAt(t, gs.Game, pos(1, 1)))
	assert.Equal(t, GS_OVER, gs.State())

	var got []model.TileChanged
	for m := range messages {
		got = append(got, m.Tiles...)
	}
	assert.Equal(t, []model.TileChanged{{
		Position: pos(1, 1),
		To:       model.ClientTile{Kind: model.TILE_OWNED, Player: id, NumNeighbors: 1},
	}}, got)
}
