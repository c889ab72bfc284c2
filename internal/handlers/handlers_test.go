package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"stickhero/internal/game"
	"stickhero/internal/protocol"
	"stickhero/internal/room"
)

// uniform segments of width 100 and space 200: a hold of 1.25s at speed 200 lands.
func testConfig() game.Config {
	cfg := game.DefaultConfig()
	cfg.MinGroundWidth, cfg.MaxGroundWidth = 100, 100
	cfg.MinSpace, cfg.MaxSpace = 200, 200
	cfg.MaxClients = 2
	return cfg
}

func newTestServer(t *testing.T) (*httptest.Server, *room.Store) {
	t.Helper()
	store := room.NewStore(testConfig(), game.NewSeededSource(11))
	srv := httptest.NewServer(NewRouter(store, ""))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return srv, store
}

func createRoom(t *testing.T, srv *httptest.Server, form url.Values) (*http.Response, map[string]string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/rooms", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /rooms: %v", err)
	}
	defer res.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(res.Body).Decode(&body)
	return res, body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	res, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
}

func TestCreateRoom_JSON(t *testing.T) {
	srv, store := newTestServer(t)
	res, body := createRoom(t, srv, url.Values{
		"mapLength":      {"12"},
		"speedIncrement": {"30"},
		"speedStep":      {"2"},
		"landingMargin":  {"7.5"},
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status %d, body %v", res.StatusCode, body)
	}
	code := body["code"]
	rm, ok := store.GetRoom(code)
	if !ok {
		t.Fatalf("room %q not in store", code)
	}
	cfg := rm.Config()
	if cfg.MapLength != 12 {
		t.Errorf("mapLength %d, want 12", cfg.MapLength)
	}
	if cfg.SpeedIncrement != 30 || cfg.SpeedStep != 2 || cfg.LandingMargin != 7.5 {
		t.Errorf("unexpected speed-up settings %+v", cfg)
	}
	if !strings.HasPrefix(body["joinUrl"], "ws://") || !strings.HasSuffix(body["joinUrl"], "/rooms/"+code+"/ws") {
		t.Errorf("joinUrl %q", body["joinUrl"])
	}

	list, err := http.Get(srv.URL + "/rooms")
	if err != nil {
		t.Fatalf("GET /rooms: %v", err)
	}
	defer list.Body.Close()
	var rooms []room.RoomInfo
	if err := json.NewDecoder(list.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Code != code || rooms[0].MaxClients != 2 {
		t.Errorf("unexpected list %+v", rooms)
	}
}

func TestCreateRoom_Rejects(t *testing.T) {
	srv, store := newTestServer(t)
	for _, form := range []url.Values{
		{"mapLength": {"0"}},
		{"mapLength": {"ten"}},
		{"stickSpeed": {"fast"}},
		{"minSpace": {"500"}, "maxSpace": {"100"}},
		{"stickSpeed": {"NaN"}},
		{"stickSpeed": {"NaN"}, "minStickLength": {"NaN"}},
		{"landingMargin": {"Inf"}},
		{"speedIncrement": {"NaN"}},
		{"speedStep": {"0"}},
		{"mapLength": {"100000000"}},
		{"minGroundWidth": {"0"}, "maxGroundWidth": {"9223372036854775807"}},
	} {
		res, body := createRoom(t, srv, form)
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("%v: status %d, want 400", form, res.StatusCode)
		}
		if body["error"] == "" {
			t.Errorf("%v: missing error message", form)
		}
	}
	if store.Len() != 0 {
		t.Errorf("rejected creates left %d rooms", store.Len())
	}
}

func TestCreateRoom_FormRedirects(t *testing.T) {
	srv, _ := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	res, err := client.PostForm(srv.URL+"/rooms", url.Values{})
	if err != nil {
		t.Fatalf("POST /rooms: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusSeeOther || res.Header.Get("Location") != "/" {
		t.Errorf("status %d location %q", res.StatusCode, res.Header.Get("Location"))
	}
}

func TestHome_ListsRooms(t *testing.T) {
	store := room.NewStore(testConfig(), game.NewSeededSource(12))
	t.Cleanup(store.Close)
	rm, err := store.CreateRoom(store.Defaults())
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	NewRouter(store, "https://play.example.com").ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, rm.Code) {
		t.Error("lobby should list the room code")
	}
	if !strings.Contains(page, "wss://play.example.com/rooms/"+rm.Code+"/ws") {
		t.Error("lobby should show the join url from the base url")
	}
	for _, field := range []string{"mapLength", "maxClients", "stickSpeed", "maxStickLength", "speedIncrement", "speedStep", "landingMargin"} {
		if !strings.Contains(page, `name="`+field+`"`) {
			t.Errorf("create form should have a %s field", field)
		}
	}
}

func TestRoomSummary(t *testing.T) {
	srv, store := newTestServer(t)
	rm, _ := store.CreateRoom(store.Defaults())

	res, err := http.Get(srv.URL + "/rooms/" + rm.Code)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	var view roomView
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Code != rm.Code || len(view.Map) != 10 || view.Config.MaxClients != 2 {
		t.Errorf("unexpected summary %+v", view)
	}

	missing, err := http.Get(srv.URL + "/rooms/NOPE")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("unknown room status %d", missing.StatusCode)
	}
}

func dial(t *testing.T, srv *httptest.Server, code, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/" + code + "/ws?userId=" + url.QueryEscape(userID)
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", userID, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// next reads frames until one of type typ arrives.
func next(t *testing.T, ws *websocket.Conn, typ string) protocol.Envelope {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, b, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		env, err := protocol.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("bad frame %s: %v", b, err)
		}
		if env.T == typ {
			return env
		}
	}
}

func send(t *testing.T, ws *websocket.Conn, typ string, payload any) {
	t.Helper()
	b, err := protocol.Encode(typ, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestWebSocket_PlayFlow(t *testing.T) {
	srv, store := newTestServer(t)
	rm, _ := store.CreateRoom(store.Defaults())

	alice := dial(t, srv, rm.Code, "alice")
	hello, err := protocol.DecodePayload[protocol.Init](next(t, alice, protocol.MsgInit))
	if err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if hello.Self.UserID != "alice" || len(hello.Map) != 10 {
		t.Fatalf("unexpected init %+v", hello)
	}

	bob := dial(t, srv, rm.Code, "bob")
	next(t, bob, protocol.MsgInit)

	send(t, alice, protocol.MsgBeginHold, protocol.BeginHold{})
	peer, _ := protocol.DecodePayload[protocol.PeerHold](next(t, bob, protocol.MsgPeerBeginHold))
	if peer.PlayerID != "alice" {
		t.Errorf("peerBeginHold for %q", peer.PlayerID)
	}

	dt := 1.25
	send(t, alice, protocol.MsgEndHold, protocol.EndHold{HoldDurationSeconds: &dt})
	next(t, bob, protocol.MsgPeerEndHold)
	for _, ws := range []*websocket.Conn{alice, bob} {
		res, _ := protocol.DecodePayload[protocol.MoveResult](next(t, ws, protocol.MsgMoveResult))
		if !res.Success || res.OutcomeKind != "advance" || res.Player.Score != 1 {
			t.Errorf("unexpected move result %+v", res)
		}
	}

	// Room holds two clients.
	carol := dial(t, srv, rm.Code, "carol")
	_ = carol.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = carol.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		t.Errorf("expected room-full close, got %v", err)
	}

	alice.Close()
	bob.Close()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := store.GetRoom(rm.Code); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("room not disposed after all clients left")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_UnknownRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/NOPE/ws"
	_, res, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("dial should fail for an unknown room")
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %v", res)
	}
}

func TestStream_RelaysBroadcasts(t *testing.T) {
	srv, store := newTestServer(t)
	rm, _ := store.CreateRoom(store.Defaults())

	res, err := http.Get(srv.URL + "/rooms/" + rm.Code + "/stream")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	events := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(res.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	expect := func(want string) {
		t.Helper()
		select {
		case got := <-events:
			if got != want {
				t.Fatalf("event %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %s event", want)
		}
	}
	expect("summary")
	dial(t, srv, rm.Code, "alice")
	expect(protocol.MsgStatePatch)
}
