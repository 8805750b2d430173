package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strmsync/internal/runner"
	"strmsync/internal/services"
	"strmsync/internal/task"
	"strmsync/internal/testsupport"
)

type fakeSubmitter struct {
	submitted []task.Task
	run       *task.Run
	err       error
	status    runner.Status
}

func (f *fakeSubmitter) Submit(_ context.Context, t task.Task) (*task.Run, error) {
	f.submitted = append(f.submitted, t)
	if f.err != nil {
		return nil, f.err
	}
	if f.run != nil {
		return f.run, nil
	}
	return &task.Run{ID: "run-1", TaskID: t.ID, Status: task.RunRunning}, nil
}

func (f *fakeSubmitter) Stat() runner.Status { return f.status }

func newTestAPI(t *testing.T) (*API, *task.Store, *fakeSubmitter) {
	t.Helper()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	submitter := &fakeSubmitter{}
	return NewAPI(store, submitter, nil), store, submitter
}

func postJSON(t *testing.T, server *httptest.Server, path string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	api, _, _ := newTestAPI(t)
	server := httptest.NewServer(api.Router())
	defer server.Close()

	resp := postJSON(t, server, "/api/tasks", task.Task{
		Name:       "movies",
		RemoteRoot: "/media/movies",
		LocalRoot:  "/srv/strm/movies",
		Scrape:     task.ScrapeOptions{Descriptors: true},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[task.Task](t, resp)
	require.NotZero(t, created.ID)
	assert.True(t, created.Scrape.Descriptors)

	resp, err := http.Get(server.URL + "/api/tasks")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[[]task.Task](t, resp)
	require.Len(t, listed, 1)

	created.RenameRule = `\.RAW$|`
	req, err := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID), mustBody(t, created))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[task.Task](t, resp)
	assert.Equal(t, `\.RAW$|`, updated.RenameRule)

	req, err = http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateTaskValidationFails(t *testing.T) {
	api, _, _ := newTestAPI(t)
	server := httptest.NewServer(api.Router())
	defer server.Close()

	resp := postJSON(t, server, "/api/tasks", task.Task{Name: "no roots"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTriggerRunSubmitsStoredTask(t *testing.T) {
	api, store, submitter := newTestAPI(t)
	server := httptest.NewServer(api.Router())
	defer server.Close()

	created, err := store.CreateTask(context.Background(), task.Task{
		Name: "shows", RemoteRoot: "/media/shows", LocalRoot: "/srv/strm/shows",
	})
	require.NoError(t, err)

	resp := postJSON(t, server, fmt.Sprintf("/api/tasks/%d/run", created.ID), nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	run := decodeBody[task.Run](t, resp)
	assert.Equal(t, created.ID, run.TaskID)
	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, "shows", submitter.submitted[0].Name)
}

func TestTriggerRunConflictsWhenAlreadyQueued(t *testing.T) {
	api, store, submitter := newTestAPI(t)
	server := httptest.NewServer(api.Router())
	defer server.Close()

	created, err := store.CreateTask(context.Background(), task.Task{
		Name: "shows", RemoteRoot: "/media/shows", LocalRoot: "/srv/strm/shows",
	})
	require.NoError(t, err)
	submitter.err = services.Wrap(services.ErrValidation, "runner", "submit", "queue full", nil)

	resp := postJSON(t, server, fmt.Sprintf("/api/tasks/%d/run", created.ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTriggerRunUnknownTask(t *testing.T) {
	api, _, submitter := newTestAPI(t)
	server := httptest.NewServer(api.Router())
	defer server.Close()

	resp := postJSON(t, server, "/api/tasks/99/run", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, submitter.submitted)
}

func TestRunHistoryEndpoints(t *testing.T) {
	api, store, _ := newTestAPI(t)
	server := httptest.NewServer(api.Router())
	defer server.Close()

	created, err := store.CreateTask(context.Background(), task.Task{
		Name: "shows", RemoteRoot: "/media/shows", LocalRoot: "/srv/strm/shows",
	})
	require.NoError(t, err)
	run, err := store.StartRun(context.Background(), created.ID)
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(context.Background(), run.ID, task.RunSucceeded,
		`{"pipeline":{"total_files":2}}`, ""))

	resp, err := http.Get(fmt.Sprintf("%s/api/tasks/%d/runs", server.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs := decodeBody[[]task.Run](t, resp)
	require.Len(t, runs, 1)
	assert.Equal(t, task.RunSucceeded, runs[0].Status)

	resp, err = http.Get(server.URL + "/api/runs/" + run.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[task.Run](t, resp)
	assert.Equal(t, run.ID, got.ID)
	assert.NotNil(t, got.FinishedAt)

	resp, err = http.Get(server.URL + "/api/runs/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthReportsRunnerAndLastRun(t *testing.T) {
	api, store, submitter := newTestAPI(t)
	submitter.status = runner.Status{Running: true, QueueDepth: 2}
	server := httptest.NewServer(api.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decodeBody[healthResponse](t, resp)
	assert.Equal(t, "ok", empty.Status)
	assert.True(t, empty.Runner.Running)
	assert.Nil(t, empty.LastRun)

	created, err := store.CreateTask(context.Background(), task.Task{
		Name: "shows", RemoteRoot: "/media/shows", LocalRoot: "/srv/strm/shows",
	})
	require.NoError(t, err)
	run, err := store.StartRun(context.Background(), created.ID)
	require.NoError(t, err)

	resp, err = http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	withRun := decodeBody[healthResponse](t, resp)
	require.NotNil(t, withRun.LastRun)
	assert.Equal(t, run.ID, withRun.LastRun.ID)
}

func TestTaskIDMustBeNumeric(t *testing.T) {
	api, _, _ := newTestAPI(t)
	server := httptest.NewServer(api.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/tasks/not-a-number")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func mustBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}
