package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/share"
	"github.com/derekprior/kickoff/internal/standings"
	"github.com/derekprior/kickoff/internal/store"
)

func tournamentID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// groupsFor returns the stored groups of a tournament. The configured
// tournament falls back to the groups in the config file.
func (s *Server) groupsFor(r *http.Request, id string) ([]config.Group, error) {
	groups, err := s.store.ListGroups(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 && id == s.cfg.Tournament.ID {
		return s.cfg.Groups, nil
	}
	return groups, nil
}

func findGroup(groups []config.Group, id string) (config.Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return config.Group{}, false
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groupsFor(r, tournamentID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jsonResponse{"groups": groups})
}

func (s *Server) handleListFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures, err := s.store.ListFixtures(r.Context(), tournamentID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	group := r.URL.Query().Get("group")
	if v := r.URL.Query().Get("matchday"); v != "" {
		md, err := strconv.Atoi(v)
		if err != nil || md < 1 {
			s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid matchday %q", v))
			return
		}
		fixtures = schedule.ByMatchday(fixtures, md, group)
	} else if group != "" {
		fixtures = schedule.ByGroup(fixtures)[group]
	}
	if fixtures == nil {
		fixtures = []schedule.Fixture{}
	}
	s.writeJSON(w, http.StatusOK, jsonResponse{"fixtures": fixtures})
}

type generateRequest struct {
	Groups []config.Group `json:"groups"`
}

// handleGenerateFixtures regenerates the whole schedule. A body with groups
// replaces the stored roster first; otherwise the stored (or configured)
// groups are used. The previous fixture list is replaced in full.
func (s *Server) handleGenerateFixtures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := tournamentID(r)

	var groups []config.Group
	if r.Body != nil && r.Body != http.NoBody {
		var req generateRequest
		if err := readJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			s.writeError(w, r, err)
			return
		}
		groups = req.Groups
	}
	if groups == nil {
		var err error
		if groups, err = s.groupsFor(r, id); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if len(groups) == 0 {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("tournament %q has no groups", id))
		return
	}
	if err := config.ValidateGroups(groups); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", schedule.ErrInvalidRoster, err))
		return
	}

	fixtures, err := schedule.GenerateGroups(s.strategy, groups)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveGroups(ctx, id, groups); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.ReplaceFixtures(ctx, id, fixtures); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("fixtures generated", "tournament", id, "groups", len(groups), "fixtures", len(fixtures),
		"matchdays", schedule.MaxMatchday(fixtures))
	s.writeJSON(w, http.StatusCreated, jsonResponse{"fixtures": fixtures})
}

type renameRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (s *Server) handleRenameTeam(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := tournamentID(r)
	// The configured roster is persisted first so the rename has something
	// to act on.
	groups, err := s.groupsFor(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveGroups(r.Context(), id, groups); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.RenameTeam(r.Context(), id, req.Old, req.New); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("team renamed", "tournament", id, "old", req.Old, "new", req.New)
	s.writeJSON(w, http.StatusOK, jsonResponse{"old": req.Old, "new": req.New})
}

type teamRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.editRoster(w, r, http.StatusCreated, "team added", req.Name, store.AddTeam)
}

func (s *Server) handleRemoveTeam(w http.ResponseWriter, r *http.Request) {
	// chi matches against RawPath when the request carried one.
	team := chi.URLParam(r, "team")
	if r.URL.RawPath != "" {
		var err error
		if team, err = url.PathUnescape(team); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: invalid team %q", errBadRequest, chi.URLParam(r, "team")))
			return
		}
	}
	s.editRoster(w, r, http.StatusOK, "team removed", team, store.RemoveTeam)
}

type rosterEdit func(ctx context.Context, st store.Store, tournamentID, groupID, name string) ([]config.Group, error)

// editRoster persists the configured roster when nothing is stored yet, then
// applies edit to the group named in the URL. The fixture list is not
// regenerated.
func (s *Server) editRoster(w http.ResponseWriter, r *http.Request, status int, msg, name string, edit rosterEdit) {
	ctx := r.Context()
	id := tournamentID(r)
	groupID := chi.URLParam(r, "groupID")

	s.rosterMu.Lock()
	defer s.rosterMu.Unlock()

	groups, err := s.groupsFor(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveGroups(ctx, id, groups); err != nil {
		s.writeError(w, r, err)
		return
	}
	groups, err = edit(ctx, s.store, id, groupID, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(msg, "tournament", id, "group", groupID, "team", name)
	s.writeJSON(w, status, jsonResponse{"groups": groups})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListResults(r.Context(), tournamentID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jsonResponse{"results": results})
}

type resultRequest struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
}

func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := tournamentID(r)
	groups, err := s.groupsFor(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkRoster(groups, req.GroupID, req.HomeTeam, req.AwayTeam); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.store.AddResult(r.Context(), id, standings.Result{
		ID:        req.ID,
		GroupID:   req.GroupID,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.hub.BroadcastToRoom(id, Message{Type: MsgResultsUpdated, Payload: result})
	s.writeJSON(w, http.StatusCreated, jsonResponse{"result": result})
}

func checkRoster(groups []config.Group, groupID string, teams ...string) error {
	g, ok := findGroup(groups, groupID)
	if !ok {
		return fmt.Errorf("%w: unknown group %q", standings.ErrInvalidResult, groupID)
	}
	for _, team := range teams {
		found := false
		for _, t := range g.Teams {
			if t == team {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q is not in group %q", standings.ErrInvalidResult, team, groupID)
		}
	}
	return nil
}

type groupTable struct {
	GroupID string                 `json:"groupId"`
	Name    string                 `json:"name"`
	Table   []standings.TeamRecord `json:"table"`
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	id := tournamentID(r)
	groups, err := s.groupsFor(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.store.ListResults(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	only := r.URL.Query().Get("group")
	tables := []groupTable{}
	for _, g := range groups {
		if only != "" && g.ID != only {
			continue
		}
		tables = append(tables, groupTable{
			GroupID: g.ID,
			Name:    g.Name,
			Table:   standings.Compute(g.Teams, standings.ForGroup(results, g.ID)),
		})
	}
	if only != "" && len(tables) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: group %q", store.ErrNotFound, only))
		return
	}
	s.writeJSON(w, http.StatusOK, jsonResponse{"standings": tables})
}

func (s *Server) handleGetBracket(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBracket(r.Context(), tournamentID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBracket(w, http.StatusOK, b)
}

func (s *Server) writeBracket(w http.ResponseWriter, status int, b *knockout.Bracket) {
	resp := jsonResponse{"matches": b.Matches}
	if champ, ok := b.Champion(); ok {
		resp["champion"] = champ
	}
	s.writeJSON(w, status, resp)
}

// handleSeedBracket seeds the knockout from the current group tables,
// replacing any existing bracket.
func (s *Server) handleSeedBracket(w http.ResponseWriter, r *http.Request) {
	id := tournamentID(r)
	groups, err := s.groupsFor(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.store.ListResults(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	qualified, err := knockout.Qualifiers(groups, results)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := knockout.Seed(qualified)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.bracketMu.Lock()
	defer s.bracketMu.Unlock()
	if err := s.store.SaveBracket(r.Context(), id, b); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.hub.BroadcastToRoom(id, Message{Type: MsgBracketUpdated, Payload: b})
	s.writeBracket(w, http.StatusCreated, b)
}

type scoreRequest struct {
	HomeScore int `json:"homeScore"`
	AwayScore int `json:"awayScore"`
}

func (s *Server) handleScoreMatch(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := tournamentID(r)

	s.bracketMu.Lock()
	defer s.bracketMu.Unlock()
	b, err := s.store.GetBracket(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := b.RecordScore(chi.URLParam(r, "matchID"), req.HomeScore, req.AwayScore); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveBracket(r.Context(), id, b); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.hub.BroadcastToRoom(id, Message{Type: MsgBracketUpdated, Payload: b})
	s.writeBracket(w, http.StatusOK, b)
}

func (s *Server) shareData(r *http.Request) ([]config.Group, []schedule.Fixture, error) {
	id := tournamentID(r)
	groups, err := s.groupsFor(r, id)
	if err != nil {
		return nil, nil, err
	}
	fixtures, err := s.store.ListFixtures(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if len(fixtures) == 0 {
		return nil, nil, fmt.Errorf("%w: tournament %q has no fixtures", store.ErrNotFound, id)
	}
	return groups, fixtures, nil
}

func (s *Server) handleShareAll(w http.ResponseWriter, r *http.Request) {
	groups, fixtures, err := s.shareData(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, share.AllText(groups, fixtures))
}

// handleShareMatchday returns the matchday message as text, or as a PNG card
// with ?format=png.
func (s *Server) handleShareMatchday(w http.ResponseWriter, r *http.Request) {
	groups, fixtures, err := s.shareData(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	param := chi.URLParam(r, "matchday")
	md, err := strconv.Atoi(param)
	if err != nil || md < 1 {
		s.writeError(w, r, fmt.Errorf("%w: invalid matchday %q", errBadRequest, param))
		return
	}
	if md > schedule.MaxMatchday(fixtures) {
		s.writeError(w, r, fmt.Errorf("%w: matchday %d", store.ErrNotFound, md))
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "text":
		writeText(w, share.MatchdayText(groups, fixtures, md))
	case "png":
		var buf bytes.Buffer
		if err := share.WritePNG(&buf, share.MatchdayImage(groups, fixtures, md)); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=matchday-%d.png", md))
		w.Write(buf.Bytes())
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown format %q", errBadRequest, r.URL.Query().Get("format")))
	}
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := tournamentID(r)
	if err := s.store.Reset(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("tournament reset", "tournament", id)
	w.WriteHeader(http.StatusNoContent)
}
