package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoigt/refgen/internal/jobs"
	"github.com/avoigt/refgen/internal/metrics"
	"github.com/avoigt/refgen/internal/models"
	"github.com/avoigt/refgen/internal/pipeline"
	"github.com/avoigt/refgen/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// gateGenerator blocks until released, so tests can observe the
// processing state deterministically.
type gateGenerator struct {
	release  chan struct{}
	response string
	err      error
}

func (g *gateGenerator) GenerateWithSystem(ctx context.Context, system, user string) (string, error) {
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.response, g.err
}

type staticRenderer struct {
	out []byte
	err error
}

func (r *staticRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	return r.out, r.err
}

type env struct {
	srv *httptest.Server
	reg *jobs.Registry
}

func newEnv(t *testing.T, gen pipeline.TextGenerator, ren pipeline.DocumentRenderer, retention time.Duration) *env {
	t.Helper()

	logger := testLogger()
	reg := jobs.NewRegistry(logger)
	t.Cleanup(reg.Close)

	mc := metrics.NewCollector()
	p := pipeline.New(pipeline.Options{
		Registry:  reg,
		Generator: gen,
		Renderer:  ren,
		Metrics:   mc,
		Logger:    logger,
	})

	s := server.New(server.Options{
		Registry:  reg,
		Pipeline:  p,
		Metrics:   mc,
		Logger:    logger,
		Retention: retention,
	})

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &env{srv: ts, reg: reg}
}

func (e *env) startJob(t *testing.T, req models.ProjectRequest) string {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(e.srv.URL+"/api/generate", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.GenerateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.JobID)
	return out.JobID
}

// status is called from assert.Eventually goroutines, so it reports
// failures through the return values instead of the test context.
func (e *env) status(id string) (int, models.StatusResponse) {
	resp, err := http.Get(e.srv.URL + "/api/status/" + id)
	if err != nil {
		return 0, models.StatusResponse{}
	}
	defer resp.Body.Close()

	var out models.StatusResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return 0, models.StatusResponse{}
		}
	}
	return resp.StatusCode, out
}

func (e *env) waitStatus(t *testing.T, id, want string) models.StatusResponse {
	t.Helper()

	var last models.StatusResponse
	require.Eventually(t, func() bool {
		code, st := e.status(id)
		if code != http.StatusOK {
			return false
		}
		last = st
		return st.Status == want
	}, 5*time.Second, 5*time.Millisecond, "job never reached status %q", want)
	return last
}

const testMarkdown = "# Photosynthesis\n\n## Sources\n\n1. A textbook."

func TestGenerateReturnsImmediately(t *testing.T) {
	gen := &gateGenerator{release: make(chan struct{}), response: testMarkdown}
	e := newEnv(t, gen, &staticRenderer{out: []byte("%PDF-1.7")}, time.Minute)

	id := e.startJob(t, models.ProjectRequest{Topic: "Photosynthesis", Subject: "Biology", Grade: "9", SourceCount: 3})

	code, st := e.status(id)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "processing", st.Status)
	assert.Less(t, st.Progress, 100)
	assert.Empty(t, st.Error)

	close(gen.release)
	e.waitStatus(t, id, "completed")
}

func TestGenerateRejectsBadPayload(t *testing.T) {
	e := newEnv(t, &gateGenerator{response: testMarkdown}, &staticRenderer{out: []byte("x")}, time.Minute)

	resp, err := http.Post(e.srv.URL+"/api/generate", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Topic is the one required field
	resp, err = http.Post(e.srv.URL+"/api/generate", "application/json", bytes.NewReader([]byte(`{"subject":"Biology"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusUnknownJob(t *testing.T) {
	e := newEnv(t, &gateGenerator{response: testMarkdown}, &staticRenderer{out: []byte("x")}, time.Minute)

	code, _ := e.status("missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDownloadLifecycle(t *testing.T) {
	pdf := []byte("%PDF-1.7 test artifact")
	e := newEnv(t, &gateGenerator{response: testMarkdown}, &staticRenderer{out: pdf}, 50*time.Millisecond)

	id := e.startJob(t, models.ProjectRequest{Topic: "Photosynthesis"})
	st := e.waitStatus(t, id, "completed")
	assert.Equal(t, 100, st.Progress)

	resp, err := http.Get(e.srv.URL + "/api/download/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	var got bytes.Buffer
	_, err = got.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pdf, got.Bytes())

	// The record is evicted after the retention window
	assert.Eventually(t, func() bool {
		r, err := http.Get(e.srv.URL + "/api/download/" + id)
		if err != nil {
			return false
		}
		r.Body.Close()
		return r.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDownloadBeforeCompletion(t *testing.T) {
	gen := &gateGenerator{release: make(chan struct{}), response: testMarkdown}
	e := newEnv(t, gen, &staticRenderer{out: []byte("x")}, time.Minute)
	defer close(gen.release)

	id := e.startJob(t, models.ProjectRequest{Topic: "X"})

	resp, err := http.Get(e.srv.URL + "/api/download/" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFailedJobHasNoArtifact(t *testing.T) {
	gen := &gateGenerator{err: errors.New("model unavailable")}
	e := newEnv(t, gen, &staticRenderer{out: []byte("x")}, time.Minute)

	id := e.startJob(t, models.ProjectRequest{Topic: "X"})
	st := e.waitStatus(t, id, "error")
	assert.Contains(t, st.Error, "model unavailable")

	resp, err := http.Get(e.srv.URL + "/api/download/" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndStats(t *testing.T) {
	e := newEnv(t, &gateGenerator{response: testMarkdown}, &staticRenderer{out: []byte("%PDF")}, time.Minute)

	resp, err := http.Get(e.srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	id := e.startJob(t, models.ProjectRequest{Topic: "X"})
	e.waitStatus(t, id, "completed")

	resp, err = http.Get(e.srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.JobsStarted)
	assert.Equal(t, int64(1), snap.JobsCompleted)
	require.NotNil(t, snap.LLMGenerate)
	assert.Equal(t, int64(1), snap.LLMGenerate.Count)
}
