package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
	"github.com/dispatchengine/engine/internal/router"
	"github.com/dispatchengine/engine/internal/state"
)

func newTestState() *state.State {
	return state.New(router.New(), "test-key", nil)
}

func TestTasksControllerNotFoundForUnknownQueue(t *testing.T) {
	ctrl := NewTasksController()
	st := newTestState()
	req := httptest.NewRequest(http.MethodGet, "/api/queues/missing/tasks", nil)

	resp := ctrl.Call(st, req, map[string]string{"queue_name": "missing"}, nil)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestQueuesIndexControllerListsRegisteredQueues(t *testing.T) {
	ctrl := NewQueuesIndexController()
	st := newTestState()
	st.Queue("default")
	st.Queue("mailers")

	req := httptest.NewRequest(http.MethodGet, "/api/queues", nil)
	resp := ctrl.Call(st, req, nil, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}

	var decoded struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Data) != 2 {
		t.Fatalf("expected 2 queues, got %d", len(decoded.Data))
	}
}

func TestDispatchControllerNotFoundForUnknownQueue(t *testing.T) {
	ctrl := NewDispatchController()
	st := newTestState()
	body := map[string]any{"task": "send_email", "data": map[string]any{}}
	req := httptest.NewRequest(http.MethodPost, "/api/queues/missing/dispatch", nil)
	req = req.WithContext(ctxutil.WithBody(req.Context(), body))

	resp := ctrl.Call(st, req, map[string]string{"queue_name": "missing"}, nil)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestDispatchControllerNotFoundForUnknownTask(t *testing.T) {
	ctrl := NewDispatchController()
	st := newTestState()
	st.Queue("default").SetWorkersTo(1)

	body := map[string]any{"task": "missing_task", "data": map[string]any{}}
	req := httptest.NewRequest(http.MethodPost, "/api/queues/default/dispatch", nil)
	req = req.WithContext(ctxutil.WithBody(req.Context(), body))

	resp := ctrl.Call(st, req, map[string]string{"queue_name": "default"}, nil)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestDispatchControllerDispatchesRegisteredTask(t *testing.T) {
	ctrl := NewDispatchController()
	st := newTestState()
	q := st.Queue("default")
	q.SetWorkersTo(1)
	q.AddTask("send_email", func(cancelled func() bool, payload map[string]any) error { return nil })

	body := map[string]any{"task": "send_email", "data": map[string]any{}}
	req := httptest.NewRequest(http.MethodPost, "/api/queues/default/dispatch", nil)
	req = req.WithContext(ctxutil.WithBody(req.Context(), body))

	resp := ctrl.Call(st, req, map[string]string{"queue_name": "default"}, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
}
