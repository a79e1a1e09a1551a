// Package integration exercises the client stack end to end against an
// in-process fake of the remote API: record lifecycle over HTTP, query
// filtering, link resolution, caching layers, and the CLI.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/airbase/internal/rest"
	"github.com/mesh-intelligence/airbase/pkg/types"
)

// fakeServer is an in-memory stand-in for the remote API. It implements
// the record endpoints the client uses: point get, paginated list,
// create, patch, and delete, with the server's error envelope.
type fakeServer struct {
	mu       sync.Mutex
	tables   map[string]map[string]types.WireRecord
	order    map[string][]string
	pageSize int

	requests []string
	formulas []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		tables:   make(map[string]map[string]types.WireRecord),
		order:    make(map[string][]string),
		pageSize: 2,
	}
}

func (s *fakeServer) tableKey(baseID, tableID string) string {
	return baseID + "/" + tableID
}

// seed inserts a record directly, bypassing HTTP.
func (s *fakeServer) seed(baseID, tableID string, data types.WireRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.tableKey(baseID, tableID)
	if s.tables[key] == nil {
		s.tables[key] = make(map[string]types.WireRecord)
	}
	s.tables[key][data.ID] = data
	s.order[key] = append(s.order[key], data.ID)
}

func (s *fakeServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *fakeServer) lastFormula() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.formulas) == 0 {
		return ""
	}
	return s.formulas[len(s.formulas)-1]
}

// newRecordID mimics the server's identifier shape.
func newRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

func wireTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func (s *fakeServer) writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"type": errType, "message": message},
	})
}

func (s *fakeServer) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		s.writeError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "missing bearer token")
		return
	}

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 3)
	if len(parts) < 2 {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown path")
		return
	}
	key := s.tableKey(parts[0], parts[1])
	recordID := ""
	if len(parts) == 3 {
		recordID = parts[2]
	}

	switch {
	case r.Method == http.MethodGet && recordID != "":
		s.handleGet(w, key, recordID)
	case r.Method == http.MethodGet:
		s.handleList(w, r, key)
	case r.Method == http.MethodPost:
		s.handleCreate(w, r, key)
	case r.Method == http.MethodPatch && recordID != "":
		s.handlePatch(w, r, key, recordID)
	case r.Method == http.MethodDelete && recordID != "":
		s.handleDelete(w, key, recordID)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method)
	}
}

func (s *fakeServer) handleGet(w http.ResponseWriter, key, recordID string) {
	s.mu.Lock()
	data, ok := s.tables[key][recordID]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "MODEL_ID_NOT_FOUND", "no record "+recordID)
		return
	}
	s.writeJSON(w, data)
}

func (s *fakeServer) handleList(w http.ResponseWriter, r *http.Request, key string) {
	formula := r.URL.Query().Get("filterByFormula")
	start := 0
	if offset := r.URL.Query().Get("offset"); offset != "" {
		start, _ = strconv.Atoi(offset)
	}

	s.mu.Lock()
	s.formulas = append(s.formulas, formula)
	ids := s.order[key]
	end := start + s.pageSize
	if end > len(ids) {
		end = len(ids)
	}
	page := struct {
		Records []types.WireRecord `json:"records"`
		Offset  string             `json:"offset,omitempty"`
	}{Records: []types.WireRecord{}}
	for _, id := range ids[start:end] {
		page.Records = append(page.Records, s.tables[key][id])
	}
	if end < len(ids) {
		page.Offset = strconv.Itoa(end)
	}
	s.mu.Unlock()

	s.writeJSON(w, page)
}

func (s *fakeServer) handleCreate(w http.ResponseWriter, r *http.Request, key string) {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST_BODY", err.Error())
		return
	}
	data := types.WireRecord{
		ID:          newRecordID(),
		CreatedTime: wireTimestamp(time.Now()),
		Fields:      body.Fields,
	}
	if data.Fields == nil {
		data.Fields = map[string]any{}
	}

	s.mu.Lock()
	if s.tables[key] == nil {
		s.tables[key] = make(map[string]types.WireRecord)
	}
	s.tables[key][data.ID] = data
	s.order[key] = append(s.order[key], data.ID)
	s.mu.Unlock()

	s.writeJSON(w, data)
}

func (s *fakeServer) handlePatch(w http.ResponseWriter, r *http.Request, key, recordID string) {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST_BODY", err.Error())
		return
	}

	s.mu.Lock()
	data, ok := s.tables[key][recordID]
	if ok {
		for column, value := range body.Fields {
			if value == nil {
				delete(data.Fields, column)
				continue
			}
			data.Fields[column] = value
		}
		s.tables[key][recordID] = data
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "MODEL_ID_NOT_FOUND", "no record "+recordID)
		return
	}
	s.writeJSON(w, data)
}

func (s *fakeServer) handleDelete(w http.ResponseWriter, key, recordID string) {
	s.mu.Lock()
	_, ok := s.tables[key][recordID]
	if ok {
		delete(s.tables[key], recordID)
		ids := s.order[key]
		for i, id := range ids {
			if id == recordID {
				s.order[key] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "MODEL_ID_NOT_FOUND", "no record "+recordID)
		return
	}
	s.writeJSON(w, map[string]any{"deleted": true, "id": recordID})
}

// newClientAndServer starts a fake server and returns a REST client wired
// to it with pacing disabled.
func newClientAndServer(t *testing.T) (*rest.Client, *fakeServer) {
	t.Helper()
	fake := newFakeServer()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	client := rest.New(rest.StaticToken("testtoken"),
		rest.WithRoot(server.URL),
		rest.WithMinInterval(0),
		rest.WithHTTPClient(server.Client()),
	)
	return client, fake
}

// Record types shared by the scenario tests, mirroring a small project
// tracker: teams and their members.

const testBaseID = "appTESTBASE000001"

func newTeamTypes() (member, team *types.RecordType) {
	reg := types.NewRegistry()
	member = types.NewRecordType("Member", types.TypeConfig{BaseID: testBaseID, TableID: "Members"},
		types.Def("Name", types.NewStringField("Name")),
		types.Def("Role", types.NewSingleSelectionField("Role", []types.Choice{
			{Value: "dev", Raw: "Developer"},
			{Value: "pm", Raw: "Project Manager"},
		})),
		types.Def("Active", types.NewBooleanField("Active")),
		types.Def("Team", types.NewSingleRecordLinkField("Team", types.TargetNameIn(reg, "Team"))),
	)
	team = types.NewRecordType("Team", types.TypeConfig{BaseID: testBaseID, TableID: "Teams"},
		types.Def("Name", types.NewStringField("Name")),
		types.Def("Members", types.NewMultipleRecordLinkField("Members", types.TargetNameIn(reg, "Member"))),
	)
	if err := reg.Register(member); err != nil {
		panic(err)
	}
	if err := reg.Register(team); err != nil {
		panic(err)
	}
	return member, team
}

func seedMember(s *fakeServer, id, name, role string, active bool, teamID string) {
	fields := map[string]any{"Name": name, "Role": role}
	if active {
		fields["Active"] = true
	}
	if teamID != "" {
		fields["Team"] = []any{teamID}
	}
	s.seed(testBaseID, "Members", types.WireRecord{
		ID:          id,
		CreatedTime: "2024-01-01T00:00:00.000Z",
		Fields:      fields,
	})
}

func seedTeam(s *fakeServer, id, name string, memberIDs ...string) {
	members := make([]any, 0, len(memberIDs))
	for _, m := range memberIDs {
		members = append(members, m)
	}
	s.seed(testBaseID, "Teams", types.WireRecord{
		ID:          id,
		CreatedTime: "2024-01-01T00:00:00.000Z",
		Fields:      map[string]any{"Name": name, "Members": members},
	})
}
