package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johnjomin/OneVote/internal/broadcast"
	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/domain/vote"
	"github.com/johnjomin/OneVote/internal/results"
)

type memPollRepo struct {
	mu    sync.Mutex
	polls map[string]*poll.Poll
}

func newMemPollRepo() *memPollRepo {
	return &memPollRepo{polls: make(map[string]*poll.Poll)}
}

func (r *memPollRepo) Create(ctx context.Context, p *poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls[p.ID] = p
	return nil
}

func (r *memPollRepo) GetByID(ctx context.Context, id string) (*poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[id]
	if !ok {
		return nil, poll.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPollRepo) List(ctx context.Context) ([]poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]poll.Poll, 0, len(r.polls))
	for _, p := range r.polls {
		res = append(res, *p)
	}
	return res, nil
}

// memVoteRepo mirrors the database behavior: the (poll, voter) pair is
// rejected atomically under one lock, like the unique index does.
type memVoteRepo struct {
	mu     sync.Mutex
	voters map[string]map[string]bool
	votes  []vote.Vote
}

func newMemVoteRepo() *memVoteRepo {
	return &memVoteRepo{voters: make(map[string]map[string]bool)}
}

func (r *memVoteRepo) Create(ctx context.Context, v *vote.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.voters[v.PollID] == nil {
		r.voters[v.PollID] = make(map[string]bool)
	}
	if r.voters[v.PollID][v.VoterID] {
		return vote.ErrAlreadyVoted
	}
	r.voters[v.PollID][v.VoterID] = true
	r.votes = append(r.votes, *v)
	return nil
}

func (r *memVoteRepo) ListByPoll(ctx context.Context, pollID string) ([]vote.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []vote.Vote
	for _, v := range r.votes {
		if v.PollID == pollID {
			res = append(res, v)
		}
	}
	return res, nil
}

func newTestServer(t *testing.T, heartbeat time.Duration) *httptest.Server {
	t.Helper()

	pollRepo := newMemPollRepo()
	voteRepo := newMemVoteRepo()
	bcast := broadcast.New()
	cache := results.NewCache(10 * time.Second)

	pollSvc := poll.NewService(pollRepo)
	resultsSvc := results.NewService(pollRepo, voteRepo, cache, bcast)
	voteSvc := vote.NewService(pollRepo, voteRepo, resultsSvc, nil)

	srv := httptest.NewServer(NewRouter(pollSvc, voteSvc, resultsSvc, bcast, heartbeat, nil))
	t.Cleanup(srv.Close)
	t.Cleanup(bcast.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func createPoll(t *testing.T, srv *httptest.Server, body map[string]any) string {
	t.Helper()
	resp, decoded := doJSON(t, http.MethodPost, srv.URL+"/polls", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create poll: expected 201, got %d (%v)", resp.StatusCode, decoded)
	}
	id, _ := decoded["id"].(string)
	if id == "" {
		t.Fatalf("created poll has no id: %v", decoded)
	}
	return id
}

func pollBody(closesAt time.Time) map[string]any {
	return map[string]any{
		"question": "Tabs or spaces?",
		"options":  []string{"A", "B"},
		"closesAt": closesAt.Format(time.RFC3339Nano),
	}
}

func optionIDs(t *testing.T, srv *httptest.Server, pollID string) map[string]string {
	t.Helper()
	resp, decoded := doJSON(t, http.MethodGet, srv.URL+"/polls/"+pollID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get poll: expected 200, got %d", resp.StatusCode)
	}
	ids := make(map[string]string)
	opts, _ := decoded["options"].([]any)
	for _, o := range opts {
		m := o.(map[string]any)
		ids[m["text"].(string)] = m["id"].(string)
	}
	return ids
}

func castVote(t *testing.T, srv *httptest.Server, pollID, optionID, voterID string) (*http.Response, map[string]any) {
	t.Helper()
	return doJSON(t, http.MethodPost, srv.URL+"/polls/"+pollID+"/votes", map[string]any{
		"optionId": optionID,
		"voterId":  voterID,
	})
}

func TestCreateAndGetPoll(t *testing.T) {
	srv := newTestServer(t, time.Minute)

	id := createPoll(t, srv, pollBody(time.Now().Add(time.Hour)))

	resp, decoded := doJSON(t, http.MethodGet, srv.URL+"/polls/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if decoded["question"] != "Tabs or spaces?" {
		t.Fatalf("unexpected poll body: %v", decoded)
	}

	resp, decoded = doJSON(t, http.MethodGet, srv.URL+"/polls/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	// consistent error envelope
	for _, key := range []string{"status", "error", "message", "timestamp", "path"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("error envelope missing %q: %v", key, decoded)
		}
	}
}

func TestCreatePollValidation(t *testing.T) {
	srv := newTestServer(t, time.Minute)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"too few options", map[string]any{
			"question": "q", "options": []string{"only"},
			"closesAt": time.Now().Add(time.Hour).Format(time.RFC3339),
		}},
		{"duplicate options", map[string]any{
			"question": "q", "options": []string{"A", "A"},
			"closesAt": time.Now().Add(time.Hour).Format(time.RFC3339),
		}},
		{"past close time", map[string]any{
			"question": "q", "options": []string{"A", "B"},
			"closesAt": time.Now().Add(-time.Hour).Format(time.RFC3339),
		}},
		{"unparseable close time", map[string]any{
			"question": "q", "options": []string{"A", "B"},
			"closesAt": "next tuesday",
		}},
		{"missing question", map[string]any{
			"options":  []string{"A", "B"},
			"closesAt": time.Now().Add(time.Hour).Format(time.RFC3339),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/polls", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestVoteAndResults(t *testing.T) {
	srv := newTestServer(t, time.Minute)
	id := createPoll(t, srv, pollBody(time.Now().Add(time.Hour)))
	opts := optionIDs(t, srv, id)

	for voter, opt := range map[string]string{
		"voter1": opts["A"],
		"voter2": opts["A"],
		"voter3": opts["B"],
	} {
		resp, decoded := castVote(t, srv, id, opt, voter)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("vote by %s: expected 200, got %d (%v)", voter, resp.StatusCode, decoded)
		}
	}

	resp, decoded := doJSON(t, http.MethodGet, srv.URL+"/polls/"+id+"/results", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results: expected 200, got %d", resp.StatusCode)
	}
	if total := decoded["total"].(float64); total != 3 {
		t.Fatalf("expected total 3, got %v", total)
	}
	byText := make(map[string]map[string]any)
	for _, o := range decoded["options"].([]any) {
		m := o.(map[string]any)
		byText[m["text"].(string)] = m
	}
	if byText["A"]["count"].(float64) != 2 || byText["A"]["percentage"].(float64) != 66.67 {
		t.Fatalf("unexpected option A results: %v", byText["A"])
	}
	if byText["B"]["count"].(float64) != 1 || byText["B"]["percentage"].(float64) != 33.33 {
		t.Fatalf("unexpected option B results: %v", byText["B"])
	}
}

func TestVoteErrors(t *testing.T) {
	srv := newTestServer(t, time.Minute)
	id := createPoll(t, srv, pollBody(time.Now().Add(time.Hour)))
	opts := optionIDs(t, srv, id)

	// duplicate voter
	if resp, _ := castVote(t, srv, id, opts["A"], "dup"); resp.StatusCode != http.StatusOK {
		t.Fatalf("first vote: expected 200, got %d", resp.StatusCode)
	}
	if resp, _ := castVote(t, srv, id, opts["B"], "dup"); resp.StatusCode != http.StatusConflict {
		t.Fatalf("second vote: expected 409, got %d", resp.StatusCode)
	}

	// option from another poll
	otherID := createPoll(t, srv, pollBody(time.Now().Add(time.Hour)))
	otherOpts := optionIDs(t, srv, otherID)
	if resp, _ := castVote(t, srv, id, otherOpts["A"], "stray"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign option: expected 404, got %d", resp.StatusCode)
	}

	// missing poll
	if resp, _ := castVote(t, srv, "missing", opts["A"], "ghost"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing poll: expected 404, got %d", resp.StatusCode)
	}

	// missing fields
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/polls/"+id+"/votes", map[string]any{"optionId": opts["A"]})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing voterId: expected 400, got %d", resp.StatusCode)
	}
}

func TestVoteAfterClose(t *testing.T) {
	srv := newTestServer(t, time.Minute)
	closesAt := time.Now().Add(150 * time.Millisecond)
	id := createPoll(t, srv, pollBody(closesAt))
	opts := optionIDs(t, srv, id)

	time.Sleep(time.Until(closesAt) + 50*time.Millisecond)

	resp, decoded := castVote(t, srv, id, opts["A"], "latecomer")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%v)", resp.StatusCode, decoded)
	}
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	srv := newTestServer(t, time.Minute)
	id := createPoll(t, srv, pollBody(time.Now().Add(time.Hour)))
	opts := optionIDs(t, srv, id)

	const n = 25
	statuses := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{"optionId": opts["A"], "voterId": "racer"})
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/polls/"+id+"/votes", bytes.NewReader(body))
			if err != nil {
				statuses <- 0
				return
			}
			req.Header.Set("Content-Type", "application/json")
			// distinct source addresses keep the per-IP limiter out of
			// the way; the duplicate guard is what is under test
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}(i)
	}
	wg.Wait()
	close(statuses)

	var ok, conflict int
	for s := range statuses {
		switch s {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		default:
			t.Fatalf("unexpected status %d", s)
		}
	}
	if ok != 1 || conflict != n-1 {
		t.Fatalf("expected exactly one accepted vote, got ok=%d conflict=%d", ok, conflict)
	}
}

func TestHiddenResults(t *testing.T) {
	srv := newTestServer(t, time.Minute)

	closesAt := time.Now().Add(500 * time.Millisecond)
	body := pollBody(closesAt)
	body["hideResultsUntilClose"] = true
	id := createPoll(t, srv, body)
	opts := optionIDs(t, srv, id)

	if resp, _ := castVote(t, srv, id, opts["A"], "voter1"); resp.StatusCode != http.StatusOK {
		t.Fatalf("vote failed with %d", resp.StatusCode)
	}

	resp, decoded := doJSON(t, http.MethodGet, srv.URL+"/polls/"+id+"/results", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if decoded["hidden"] != true {
		t.Fatalf("expected hidden results before close, got %v", decoded)
	}
	if _, ok := decoded["closesAt"]; !ok {
		t.Fatalf("hidden response missing closesAt: %v", decoded)
	}
	if _, ok := decoded["total"]; ok {
		t.Fatalf("hidden response leaked aggregates: %v", decoded)
	}

	time.Sleep(time.Until(closesAt) + 50*time.Millisecond)

	resp, decoded = doJSON(t, http.MethodGet, srv.URL+"/polls/"+id+"/results", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after close, got %d", resp.StatusCode)
	}
	if decoded["hidden"] == true {
		t.Fatalf("results still hidden after close: %v", decoded)
	}
	if total := decoded["total"].(float64); total != 1 {
		t.Fatalf("expected total 1 after close, got %v", total)
	}
}

func TestResultsReflectVoteImmediately(t *testing.T) {
	srv := newTestServer(t, time.Minute)
	id := createPoll(t, srv, pollBody(time.Now().Add(time.Hour)))
	opts := optionIDs(t, srv, id)

	// prime the cache with an empty snapshot
	_, decoded := doJSON(t, http.MethodGet, srv.URL+"/polls/"+id+"/results", nil)
	if decoded["total"].(float64) != 0 {
		t.Fatalf("expected empty results, got %v", decoded)
	}

	if resp, _ := castVote(t, srv, id, opts["A"], "voter1"); resp.StatusCode != http.StatusOK {
		t.Fatal("vote failed")
	}

	// the vote invalidated the cache, so this read recomputes even though
	// the primed snapshot's TTL has not expired
	_, decoded = doJSON(t, http.MethodGet, srv.URL+"/polls/"+id+"/results", nil)
	if decoded["total"].(float64) != 1 {
		t.Fatalf("stale cached results after vote: %v", decoded)
	}
}

func TestStreamNotFound(t *testing.T) {
	srv := newTestServer(t, time.Minute)
	resp, err := http.Get(srv.URL + "/polls/missing/stream")
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before stream establishment, got %d", resp.StatusCode)
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream read failed: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if ev.name != "" {
				return ev
			}
		}
	}
}

func TestStream(t *testing.T) {
	srv := newTestServer(t, 200*time.Millisecond)
	id := createPoll(t, srv, pollBody(time.Now().Add(time.Hour)))
	opts := optionIDs(t, srv, id)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/polls/"+id+"/stream", nil)
	if err != nil {
		t.Fatalf("build stream request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)

	ev := readEvent(t, reader)
	if ev.name != "connected" {
		t.Fatalf("expected connected event first, got %q", ev.name)
	}

	ev = readEvent(t, reader)
	if ev.name != "results" {
		t.Fatalf("expected immediate results snapshot, got %q", ev.name)
	}
	var snap struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(ev.data), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Total != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", snap)
	}

	if r, _ := castVote(t, srv, id, opts["A"], "voter1"); r.StatusCode != http.StatusOK {
		t.Fatal("vote failed")
	}

	// the vote's async recompute must show up as a results event; heartbeats
	// may interleave
	sawVote := false
	sawHeartbeat := false
	for !sawVote || !sawHeartbeat {
		ev = readEvent(t, reader)
		switch ev.name {
		case "results":
			if err := json.Unmarshal([]byte(ev.data), &snap); err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
			if snap.Total == 1 {
				sawVote = true
			}
		case "heartbeat":
			sawHeartbeat = true
		}
	}
}
