package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity-dev/corpusgen/internal/axis"
	"github.com/antigravity-dev/corpusgen/internal/config"
	"github.com/antigravity-dev/corpusgen/internal/coordstate"
	"github.com/antigravity-dev/corpusgen/internal/scheduler"
	"github.com/antigravity-dev/corpusgen/internal/store"
	"github.com/antigravity-dev/corpusgen/internal/targetgen"
	"github.com/antigravity-dev/corpusgen/internal/validator"
)

type fakeGenerator struct{}

func (fakeGenerator) Generate(ctx context.Context, sel axis.Selection) (*targetgen.Result, error) {
	return &targetgen.Result{
		Payload:     targetgen.Payload{"defunt": targetgen.Payload{"nom": "Jean Dupont"}},
		TOON:        "defunt:\n  nom: Jean Dupont\n",
		MustInclude: []string{"Jean Dupont"},
	}, nil
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	catalog := axis.Catalog{
		axis.Persona: {Buckets: []axis.Share{{Bucket: "conjoint", Target: 1.0}}},
	}
	st, err := store.Open(t.TempDir(), catalog, 10, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sched := scheduler.New(catalog, st.Counters(), 0, rand.New(rand.NewSource(1)))
	cfg := &config.Config{Generation: config.GenerationConfig{GenerationTarget: 10}}
	mgr := config.NewManager(cfg)
	sim := validator.NewSimilarityWindow(10, 0.9)

	coord := coordstate.New(mgr, sched, fakeGenerator{}, st, sim, nil)
	return New("127.0.0.1:0", coord, nil)
}

func TestHandleHealth(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHandleNextInstructionGET(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/next-instruction?agent_id=agent-1", nil)
	w := httptest.NewRecorder()
	srv.handleNextInstruction(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp nextInstructionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "INS-0001", resp.InstructionID)
	assert.Equal(t, "agent-1", resp.AgentID)
	assert.NotEmpty(t, resp.TargetTOON)
}

func TestHandleNextInstructionExhaustedReturns200(t *testing.T) {
	srv := setupTestServer(t)
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/next-instruction", nil)
		w := httptest.NewRecorder()
		srv.handleNextInstruction(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/next-instruction", nil)
	w := httptest.NewRecorder()
	srv.handleNextInstruction(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp nextInstructionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Exhausted)
}

func TestHandleSubmitCaseRejectsClientTarget(t *testing.T) {
	srv := setupTestServer(t)
	body := bytes.NewBufferString(`{"instruction_id":"INS-0001","case_text":"x","target":{"defunt":{"nom":"x"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/submit-case", body)
	w := httptest.NewRecorder()
	srv.handleSubmitCase(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp apiError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "legacy_target", resp.Kind)
}

func TestHandleSubmitCaseEndToEnd(t *testing.T) {
	srv := setupTestServer(t)

	next := httptest.NewRequest(http.MethodGet, "/next-instruction", nil)
	nw := httptest.NewRecorder()
	srv.handleNextInstruction(nw, next)
	var issued nextInstructionResponse
	require.NoError(t, json.NewDecoder(nw.Body).Decode(&issued))

	payload, err := json.Marshal(submitCaseRequest{
		InstructionID: issued.InstructionID,
		CaseText:      "Jean Dupont est decede le mois dernier.",
		AgentID:       "agent-1",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/submit-case", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	srv.handleSubmitCase(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp submitCaseResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Accepted)

	w2 := httptest.NewRecorder()
	srv.handleSubmitCase(w2, httptest.NewRequest(http.MethodPost, "/submit-case", bytes.NewReader(payload)))
	require.Equal(t, http.StatusBadRequest, w2.Code)
	var errResp apiError
	require.NoError(t, json.NewDecoder(w2.Body).Decode(&errResp))
	assert.Equal(t, "already_submitted", errResp.Kind)
}

func TestHandleSubmitCaseUnknownInstruction(t *testing.T) {
	srv := setupTestServer(t)
	payload, err := json.Marshal(submitCaseRequest{InstructionID: "INS-9999", CaseText: "x"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/submit-case", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	srv.handleSubmitCase(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp apiError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unknown_instruction", resp.Kind)
}
