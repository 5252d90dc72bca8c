package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoigt/refgen/internal/models"
)

func TestStart(t *testing.T) {
	var gotPath string
	var gotReq models.ProjectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(models.GenerateResponse{JobID: "ab12cd34"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	jobID, err := c.Start(context.Background(), models.ProjectRequest{Topic: "Volcanoes"})
	require.NoError(t, err)

	assert.Equal(t, "ab12cd34", jobID)
	assert.Equal(t, "/api/generate", gotPath)
	assert.Equal(t, "Volcanoes", gotReq.Topic)
}

func TestStartServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "invalid request body"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Start(context.Background(), models.ProjectRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request body")
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status/ab12cd34", r.URL.Path)
		json.NewEncoder(w).Encode(models.StatusResponse{
			Status:   "processing",
			Progress: 55,
			Message:  "converting document",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	st, err := c.Status(context.Background(), "ab12cd34")
	require.NoError(t, err)

	assert.Equal(t, "processing", st.Status)
	assert.Equal(t, 55, st.Progress)
}

func TestStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "job not found"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job not found")
}

func TestDownload(t *testing.T) {
	pdf := []byte("%PDF-1.7 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/download/ab12cd34", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	}))
	defer srv.Close()

	c := New(srv.URL)
	data, err := c.Download(context.Background(), "ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, pdf, data)
}

func TestDownloadEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Download(context.Background(), "ab12cd34")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestNewDefaultURL(t *testing.T) {
	t.Setenv("REFGEN_SERVER_URL", "")
	c := New("")
	assert.Equal(t, "http://localhost:8090", c.baseURL)

	t.Setenv("REFGEN_SERVER_URL", "http://example.com:9000")
	c = New("")
	assert.Equal(t, "http://example.com:9000", c.baseURL)
}
