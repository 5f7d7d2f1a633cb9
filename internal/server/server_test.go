package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
	"github.com/derekprior/kickoff/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Tournament: config.Tournament{ID: "cup", Name: "Summer Cup"},
		Groups: []config.Group{
			{ID: "a", Name: "Group A", Teams: []string{"Lions", "Tigers", "Bears"}},
			{ID: "b", Name: "Group B", Teams: []string{"Eagles", "Hawks"}},
			{ID: "c", Name: "Group C", Teams: []string{"Sharks", "Whales"}},
			{ID: "d", Name: "Group D", Teams: []string{"Foxes", "Owls"}},
		},
		Server: config.Server{Addr: ":0"},
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(testConfig(), store.NewMemoryStore(), logger)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s.PollInterval = 10 * time.Millisecond
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, data
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s status = %d, want %d; body: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func decode(t *testing.T, data []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
}

func generate(t *testing.T, ts *httptest.Server) []schedule.Fixture {
	t.Helper()
	resp, body := do(t, ts, http.MethodPost, "/api/tournaments/cup/fixtures/generate", "")
	expectStatus(t, resp, body, http.StatusCreated)
	var out struct {
		Fixtures []schedule.Fixture `json:"fixtures"`
	}
	decode(t, body, &out)
	return out.Fixtures
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/healthz", "")
	expectStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), `"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestGenerateAndListFixtures(t *testing.T) {
	_, ts := newTestServer(t)

	fixtures := generate(t, ts)
	if len(fixtures) != 12 {
		t.Fatalf("generated %d fixtures, want 12", len(fixtures))
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 12},
		{"?matchday=1", 4},
		{"?group=a", 6},
		{"?matchday=1&group=a", 1},
		{"?group=zz", 0},
	}
	for _, tt := range tests {
		t.Run("list"+tt.query, func(t *testing.T) {
			resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/fixtures"+tt.query, "")
			expectStatus(t, resp, body, http.StatusOK)
			var out struct {
				Fixtures []schedule.Fixture `json:"fixtures"`
			}
			decode(t, body, &out)
			if len(out.Fixtures) != tt.want {
				t.Errorf("fixtures = %d, want %d", len(out.Fixtures), tt.want)
			}
		})
	}

	t.Run("bad matchday", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/fixtures?matchday=zero", "")
		expectStatus(t, resp, body, http.StatusBadRequest)
	})

	t.Run("groups are persisted", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/groups", "")
		expectStatus(t, resp, body, http.StatusOK)
		var out struct {
			Groups []config.Group `json:"groups"`
		}
		decode(t, body, &out)
		if len(out.Groups) != 4 {
			t.Errorf("groups = %d, want 4", len(out.Groups))
		}
	})

	t.Run("regenerating replaces the list", func(t *testing.T) {
		generate(t, ts)
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/fixtures", "")
		expectStatus(t, resp, body, http.StatusOK)
		if n := strings.Count(string(body), `"homeTeam"`); n != 12 {
			t.Errorf("fixtures after regenerate = %d, want 12", n)
		}
	})
}

func TestGenerateWithGroups(t *testing.T) {
	_, ts := newTestServer(t)

	t.Run("body replaces roster", func(t *testing.T) {
		body := `{"groups":[{"id":"x","name":"Friendlies","teams":["Rovers","United"]}]}`
		resp, data := do(t, ts, http.MethodPost, "/api/tournaments/friendly/fixtures/generate", body)
		expectStatus(t, resp, data, http.StatusCreated)
		var out struct {
			Fixtures []schedule.Fixture `json:"fixtures"`
		}
		decode(t, data, &out)
		want := []schedule.Fixture{
			{HomeTeam: "Rovers", AwayTeam: "United", Matchday: 1, Round: 1, GroupID: "x"},
			{HomeTeam: "United", AwayTeam: "Rovers", Matchday: 2, Round: 2, GroupID: "x"},
		}
		if len(out.Fixtures) != len(want) {
			t.Fatalf("fixtures = %+v, want %+v", out.Fixtures, want)
		}
		for i := range want {
			if out.Fixtures[i] != want[i] {
				t.Errorf("fixture %d = %+v, want %+v", i, out.Fixtures[i], want[i])
			}
		}
	})

	t.Run("chunked body replaces roster", func(t *testing.T) {
		body := `{"groups":[{"id":"x","name":"Friendlies","teams":["Rovers","United","City"]}]}`
		// A reader of unknown length is sent with chunked transfer encoding.
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/tournaments/chunked/fixtures/generate",
			io.MultiReader(strings.NewReader(body)))
		if err != nil {
			t.Fatalf("building request: %v", err)
		}
		if req.ContentLength != 0 {
			t.Fatalf("ContentLength = %d, want unknown", req.ContentLength)
		}
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		expectStatus(t, resp, data, http.StatusCreated)
		var out struct {
			Fixtures []schedule.Fixture `json:"fixtures"`
		}
		decode(t, data, &out)
		if len(out.Fixtures) != 6 {
			t.Errorf("fixtures = %d, want 6", len(out.Fixtures))
		}
		for _, f := range out.Fixtures {
			if f.GroupID != "x" {
				t.Errorf("fixture from group %q, want x", f.GroupID)
			}
		}
	})

	t.Run("empty body of unknown length uses stored roster", func(t *testing.T) {
		s, _ := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/tournaments/cup/fixtures/generate", io.MultiReader())
		if req.ContentLength != -1 {
			t.Fatalf("ContentLength = %d, want -1", req.ContentLength)
		}
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body)
		}
		var out struct {
			Fixtures []schedule.Fixture `json:"fixtures"`
		}
		decode(t, rec.Body.Bytes(), &out)
		if len(out.Fixtures) != 12 {
			t.Errorf("fixtures = %d, want 12", len(out.Fixtures))
		}
	})

	t.Run("body without groups uses stored roster", func(t *testing.T) {
		resp, data := do(t, ts, http.MethodPost, "/api/tournaments/cup/fixtures/generate", `{}`)
		expectStatus(t, resp, data, http.StatusCreated)
	})

	t.Run("duplicate team across groups", func(t *testing.T) {
		body := `{"groups":[{"id":"x","teams":["Rovers","United"]},{"id":"y","teams":["rovers","City"]}]}`
		resp, data := do(t, ts, http.MethodPost, "/api/tournaments/friendly/fixtures/generate", body)
		expectStatus(t, resp, data, http.StatusBadRequest)
	})

	t.Run("unknown field", func(t *testing.T) {
		resp, data := do(t, ts, http.MethodPost, "/api/tournaments/friendly/fixtures/generate", `{"teams":[]}`)
		expectStatus(t, resp, data, http.StatusBadRequest)
	})

	t.Run("tournament without groups", func(t *testing.T) {
		resp, data := do(t, ts, http.MethodPost, "/api/tournaments/nobody/fixtures/generate", "")
		expectStatus(t, resp, data, http.StatusBadRequest)
	})
}

func TestResultsAndStandings(t *testing.T) {
	_, ts := newTestServer(t)
	generate(t, ts)

	resp, body := do(t, ts, http.MethodPost, "/api/tournaments/cup/results",
		`{"groupId":"a","homeTeam":"Tigers","awayTeam":"Lions","homeScore":2,"awayScore":0}`)
	expectStatus(t, resp, body, http.StatusCreated)
	var created struct {
		Result standings.Result `json:"result"`
	}
	decode(t, body, &created)
	if created.Result.ID == "" {
		t.Error("recorded result has no id")
	}

	bad := []struct {
		name string
		body string
	}{
		{"team outside group", `{"groupId":"a","homeTeam":"Tigers","awayTeam":"Hawks","homeScore":1,"awayScore":0}`},
		{"unknown group", `{"groupId":"z","homeTeam":"Tigers","awayTeam":"Lions","homeScore":1,"awayScore":0}`},
		{"negative score", `{"groupId":"a","homeTeam":"Tigers","awayTeam":"Lions","homeScore":-1,"awayScore":0}`},
		{"malformed", `{"groupId":`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, http.MethodPost, "/api/tournaments/cup/results", tt.body)
			expectStatus(t, resp, body, http.StatusBadRequest)
		})
	}

	t.Run("standings", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/standings?group=a", "")
		expectStatus(t, resp, body, http.StatusOK)
		var out struct {
			Standings []groupTable `json:"standings"`
		}
		decode(t, body, &out)
		if len(out.Standings) != 1 {
			t.Fatalf("tables = %d, want 1", len(out.Standings))
		}
		table := out.Standings[0].Table
		want := []string{"Tigers", "Bears", "Lions"}
		for i, w := range want {
			if table[i].Team != w {
				t.Errorf("position %d = %s, want %s", i+1, table[i].Team, w)
			}
		}
		if table[0].Points != standings.PointsWin {
			t.Errorf("Tigers points = %d, want %d", table[0].Points, standings.PointsWin)
		}
	})

	t.Run("all groups", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/standings", "")
		expectStatus(t, resp, body, http.StatusOK)
		if n := strings.Count(string(body), `"groupId"`); n != 4 {
			t.Errorf("tables = %d, want 4", n)
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/standings?group=zz", "")
		expectStatus(t, resp, body, http.StatusNotFound)
	})

	t.Run("list results", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/results", "")
		expectStatus(t, resp, body, http.StatusOK)
		if n := strings.Count(string(body), `"homeScore"`); n != 1 {
			t.Errorf("results = %d, want 1", n)
		}
	})
}

func TestRenameTeam(t *testing.T) {
	_, ts := newTestServer(t)
	generate(t, ts)

	resp, body := do(t, ts, http.MethodPost, "/api/tournaments/cup/teams/rename", `{"old":"Lions","new":"Pumas"}`)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = do(t, ts, http.MethodGet, "/api/tournaments/cup/fixtures?group=a", "")
	expectStatus(t, resp, body, http.StatusOK)
	if strings.Contains(string(body), "Lions") || strings.Count(string(body), "Pumas") != 4 {
		t.Errorf("fixtures after rename: %s", body)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"clash", `{"old":"Tigers","new":"bears"}`, http.StatusConflict},
		{"unknown team", `{"old":"Ghosts","new":"Spirits"}`, http.StatusNotFound},
		{"blank name", `{"old":"Tigers","new":"  "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, http.MethodPost, "/api/tournaments/cup/teams/rename", tt.body)
			expectStatus(t, resp, body, tt.want)
		})
	}
}

func TestAddRemoveTeam(t *testing.T) {
	_, ts := newTestServer(t)

	groupA := func(t *testing.T, data []byte) []string {
		t.Helper()
		var out struct {
			Groups []config.Group `json:"groups"`
		}
		decode(t, data, &out)
		for _, g := range out.Groups {
			if g.ID == "a" {
				return g.Teams
			}
		}
		t.Fatalf("group a missing from %s", data)
		return nil
	}

	resp, body := do(t, ts, http.MethodPost, "/api/tournaments/cup/groups/a/teams", `{"name":"Real Lions"}`)
	expectStatus(t, resp, body, http.StatusCreated)
	if got := groupA(t, body); len(got) != 4 || got[3] != "Real Lions" {
		t.Errorf("group a = %v, want Real Lions appended", got)
	}

	resp, body = do(t, ts, http.MethodGet, "/api/tournaments/cup/groups", "")
	expectStatus(t, resp, body, http.StatusOK)
	if got := groupA(t, body); len(got) != 4 {
		t.Errorf("stored group a = %v, want 4 teams", got)
	}

	fixtures := generate(t, ts)
	if len(fixtures) != 18 {
		t.Errorf("fixtures after add = %d, want 18", len(fixtures))
	}

	resp, body = do(t, ts, http.MethodDelete, "/api/tournaments/cup/groups/a/teams/Real%20Lions", "")
	expectStatus(t, resp, body, http.StatusOK)
	if got := groupA(t, body); len(got) != 3 || got[0] != "Lions" || got[2] != "Bears" {
		t.Errorf("group a = %v, want Lions Tigers Bears", got)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"duplicate across groups", http.MethodPost, "/api/tournaments/cup/groups/a/teams", `{"name":"eagles"}`, http.StatusConflict},
		{"blank name", http.MethodPost, "/api/tournaments/cup/groups/a/teams", `{"name":" "}`, http.StatusBadRequest},
		{"unknown group", http.MethodPost, "/api/tournaments/cup/groups/z/teams", `{"name":"Pumas"}`, http.StatusNotFound},
		{"missing body", http.MethodPost, "/api/tournaments/cup/groups/a/teams", "", http.StatusBadRequest},
		{"remove unknown team", http.MethodDelete, "/api/tournaments/cup/groups/a/teams/Ghosts", "", http.StatusNotFound},
		{"remove from wrong group", http.MethodDelete, "/api/tournaments/cup/groups/b/teams/Lions", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, tt.method, tt.path, tt.body)
			expectStatus(t, resp, body, tt.want)
		})
	}
}

func TestBracket(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/bracket", "")
	expectStatus(t, resp, body, http.StatusNotFound)

	resp, body = do(t, ts, http.MethodPost, "/api/tournaments/cup/bracket/seed", "")
	expectStatus(t, resp, body, http.StatusCreated)
	var seeded struct {
		Matches []knockout.Match `json:"matches"`
	}
	decode(t, body, &seeded)
	if len(seeded.Matches) != 7 {
		t.Fatalf("matches = %d, want 7", len(seeded.Matches))
	}
	// With no results every table keeps roster order.
	if q1 := seeded.Matches[0]; q1.HomeTeam != "Lions" || q1.AwayTeam != "Whales" {
		t.Errorf("q1 = %s vs %s, want Lions vs Whales", q1.HomeTeam, q1.AwayTeam)
	}

	score := func(id string, home, away int) (*http.Response, []byte) {
		return do(t, ts, http.MethodPost, "/api/tournaments/cup/bracket/"+id+"/score",
			fmt.Sprintf(`{"homeScore":%d,"awayScore":%d}`, home, away))
	}

	errs := []struct {
		name  string
		id    string
		score [2]int
		want  int
	}{
		{"draw", "q1", [2]int{1, 1}, http.StatusBadRequest},
		{"not ready", "s1", [2]int{1, 0}, http.StatusBadRequest},
		{"unknown match", "q9", [2]int{1, 0}, http.StatusNotFound},
		{"negative", "q1", [2]int{-1, 0}, http.StatusBadRequest},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := score(tt.id, tt.score[0], tt.score[1])
			expectStatus(t, resp, body, tt.want)
		})
	}

	t.Run("play to a champion", func(t *testing.T) {
		for _, id := range []string{"q1", "q2", "q3", "q4", "s1", "s2", "f1"} {
			resp, body := score(id, 1, 0)
			expectStatus(t, resp, body, http.StatusOK)
		}
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/bracket", "")
		expectStatus(t, resp, body, http.StatusOK)
		var out struct {
			Champion string `json:"champion"`
		}
		decode(t, body, &out)
		if out.Champion != "Lions" {
			t.Errorf("champion = %q, want Lions", out.Champion)
		}
	})

	t.Run("group stage incomplete", func(t *testing.T) {
		body := `{"groups":[{"id":"x","teams":["Rovers","United"]}]}`
		resp, data := do(t, ts, http.MethodPost, "/api/tournaments/friendly/fixtures/generate", body)
		expectStatus(t, resp, data, http.StatusCreated)
		resp, data = do(t, ts, http.MethodPost, "/api/tournaments/friendly/bracket/seed", "")
		expectStatus(t, resp, data, http.StatusBadRequest)
	})
}

func TestShare(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/share/1", "")
	expectStatus(t, resp, body, http.StatusNotFound)

	generate(t, ts)

	t.Run("text", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/share/1", "")
		expectStatus(t, resp, body, http.StatusOK)
		text := string(body)
		if !strings.HasPrefix(text, "🏆 TOURNAMENT FIXTURES - MATCHDAY 1\n\n📋 Group A\n1. Bears vs Lions\n") {
			t.Errorf("unexpected text:\n%s", text)
		}
		if !strings.HasSuffix(text, "#Tournament #Matchday1") {
			t.Errorf("missing footer:\n%s", text)
		}
	})

	t.Run("png", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/share/1?format=png", "")
		expectStatus(t, resp, body, http.StatusOK)
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type = %q", ct)
		}
		if _, err := png.Decode(bytes.NewReader(body)); err != nil {
			t.Errorf("decoding PNG: %v", err)
		}
	})

	t.Run("all matchdays", func(t *testing.T) {
		resp, body := do(t, ts, http.MethodGet, "/api/tournaments/cup/share", "")
		expectStatus(t, resp, body, http.StatusOK)
		if n := strings.Count(string(body), "TOURNAMENT FIXTURES - MATCHDAY"); n != 6 {
			t.Errorf("matchdays = %d, want 6", n)
		}
	})

	errs := []struct {
		path string
		want int
	}{
		{"/api/tournaments/cup/share/99", http.StatusNotFound},
		{"/api/tournaments/cup/share/first", http.StatusBadRequest},
		{"/api/tournaments/cup/share/1?format=gif", http.StatusBadRequest},
	}
	for _, tt := range errs {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := do(t, ts, http.MethodGet, tt.path, "")
			expectStatus(t, resp, body, tt.want)
		})
	}
}

func TestReset(t *testing.T) {
	_, ts := newTestServer(t)
	generate(t, ts)

	resp, body := do(t, ts, http.MethodDelete, "/api/tournaments/cup", "")
	expectStatus(t, resp, body, http.StatusNoContent)

	resp, body = do(t, ts, http.MethodGet, "/api/tournaments/cup/fixtures", "")
	expectStatus(t, resp, body, http.StatusOK)
	if strings.Contains(string(body), "homeTeam") {
		t.Errorf("fixtures survived reset: %s", body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("group %q: %w", "a", schedule.ErrInvalidRoster), http.StatusBadRequest},
		{standings.ErrInvalidResult, http.StatusBadRequest},
		{knockout.ErrDrawNotAllowed, http.StatusBadRequest},
		{store.ErrInvalidID, http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{knockout.ErrUnknownMatch, http.StatusNotFound},
		{store.ErrConflict, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWebsocketFixturesUpdated(t *testing.T) {
	s, ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/tournaments/cup"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	type envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
		RoomID  string          `json:"room_id"`
	}
	read := func() envelope {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading message: %v", err)
		}
		return msg
	}

	// The first message is the current, empty, fixture list.
	first := read()
	if first.Type != MsgFixturesUpdated || first.RoomID != "cup" {
		t.Fatalf("first message = %+v", first)
	}

	generate(t, ts)

	for {
		msg := read()
		if msg.Type != MsgFixturesUpdated {
			continue
		}
		var fixtures []schedule.Fixture
		if err := json.Unmarshal(msg.Payload, &fixtures); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if len(fixtures) == 0 {
			continue
		}
		if len(fixtures) != 12 {
			t.Errorf("pushed %d fixtures, want 12", len(fixtures))
		}
		break
	}

	if n := s.hub.RoomSize("cup"); n != 1 {
		t.Errorf("room size = %d, want 1", n)
	}
}
