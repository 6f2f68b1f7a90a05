package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubKibana(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	for _, key := range []string{
		"ELASTICSEARCH_URL", "ELASTICSEARCH_API_KEY", "API_KEY",
		"ELASTIC_SPACE_ID", "KIBANA_SPACE_ID",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	t.Setenv("KIBANA_URL", srv.URL)
	t.Setenv("KIBANA_API_KEY", "test-key")
}

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything written to it.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	runErr := fn()

	w.Close()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), runErr
}

func TestConverseCommand(t *testing.T) {
	var payload map[string]any
	stubKibana(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/agent_builder/converse", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.Write([]byte(`{"response": {"message": "hi"}, "conversation_id": "c1"}`))
	})

	cmd := newRootCmd()
	cmd.SetArgs([]string{"converse", "--agent-id", "a1", "--input", "hello"})

	out, err := captureStdout(t, cmd.Execute)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"input": "hello", "agent_id": "a1"}, payload)

	var printed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	assert.Equal(t, "c1", printed["conversation_id"])
	assert.Equal(t, map[string]any{"message": "hi"}, printed["response"])
}

func TestConverseCommandOptionalFlags(t *testing.T) {
	var payload map[string]any
	stubKibana(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.Write([]byte(`{}`))
	})

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"converse",
		"--agent-id", "a1",
		"--input", "hello",
		"--conversation-id", "c9",
		"--connector-id", "conn1",
		"--configuration-overrides", `{"temperature": 0.1}`,
		"--prompts", `{"system": "short"}`,
	})

	_, err := captureStdout(t, cmd.Execute)
	require.NoError(t, err)

	assert.Equal(t, "c9", payload["conversation_id"])
	assert.Equal(t, "conn1", payload["connector_id"])
	assert.Equal(t, map[string]any{"temperature": 0.1}, payload["configuration_overrides"])
	assert.Equal(t, map[string]any{"system": "short"}, payload["prompts"])
}

func TestConverseCommandBadOverridesJSON(t *testing.T) {
	stubKibana(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for malformed arguments")
	})

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"converse",
		"--agent-id", "a1",
		"--input", "hello",
		"--configuration-overrides", `{broken`,
	})
	cmd.SetErr(io.Discard)

	_, err := captureStdout(t, cmd.Execute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--configuration-overrides")
}

func TestListAgentsCommand(t *testing.T) {
	stubKibana(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/agent_builder/agents", r.URL.Path)
		w.Write([]byte(`{"results": [{"id": "a1", "name": "First"}]}`))
	})

	cmd := newRootCmd()
	cmd.SetArgs([]string{"list-agents"})

	out, err := captureStdout(t, cmd.Execute)
	require.NoError(t, err)

	var printed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	require.Len(t, printed, 1)
	assert.Equal(t, "a1", printed[0]["id"])
}

func TestMissingConfigFailsBeforeNetwork(t *testing.T) {
	for _, key := range []string{
		"ELASTICSEARCH_URL", "KIBANA_URL",
		"ELASTICSEARCH_API_KEY", "KIBANA_API_KEY", "API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"list-agents"})
	cmd.SetErr(io.Discard)

	_, err := captureStdout(t, cmd.Execute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KIBANA_URL")
}

func TestParseJSONObject(t *testing.T) {
	t.Run("empty is nil", func(t *testing.T) {
		obj, err := parseJSONObject("--prompts", "")
		require.NoError(t, err)
		assert.Nil(t, obj)
	})

	t.Run("object parsed", func(t *testing.T) {
		obj, err := parseJSONObject("--prompts", `{"a": 1}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, obj)
	})

	t.Run("non-object rejected", func(t *testing.T) {
		_, err := parseJSONObject("--prompts", `[1, 2]`)
		require.Error(t, err)
	})
}
