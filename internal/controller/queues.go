package controller

import (
	"net/http"

	"github.com/dispatchengine/engine/internal/domain"
	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
	"github.com/dispatchengine/engine/internal/state"
)

// NewQueuesIndexController answers GET /api/queues with every queue's
// id and name.
func NewQueuesIndexController() *Controller {
	return New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		queues := st.Queues()
		out := make([]map[string]any, 0, len(queues))
		for name, q := range queues {
			out = append(out, map[string]any{"id": q.ID().String(), "name": name})
		}
		return JSON(http.StatusOK, map[string]any{"data": out})
	}, true, false, nil)
}

// NewTasksController answers GET /api/queues/{queue_name}/tasks.
func NewTasksController() *Controller {
	return New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		name := params["queue_name"]
		if !st.QueueExists(name) {
			return Empty(http.StatusNotFound)
		}
		tasks := st.Queue(name).Tasks()
		out := make([]map[string]any, 0, len(tasks))
		for _, t := range tasks {
			out = append(out, map[string]any{"id": t.ID.String(), "name": t.Name})
		}
		return JSON(http.StatusOK, map[string]any{"data": out})
	}, true, false, nil)
}

// NewJobsController answers GET /api/queues/{queue_name}/jobs.
func NewJobsController() *Controller {
	return New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		name := params["queue_name"]
		if !st.QueueExists(name) {
			return Empty(http.StatusNotFound)
		}
		jobs := st.Queue(name).Jobs()
		out := make([]map[string]any, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, map[string]any{"id": j.ID().String(), "task_id": j.TaskID().String()})
		}
		return JSON(http.StatusOK, map[string]any{"data": out})
	}, true, false, nil)
}

// NewWorkersController answers GET /api/queues/{queue_name}/workers.
func NewWorkersController() *Controller {
	return New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		name := params["queue_name"]
		if !st.QueueExists(name) {
			return Empty(http.StatusNotFound)
		}
		workers := st.Queue(name).Workers()
		out := make([]map[string]any, 0, len(workers))
		for _, w := range workers {
			out = append(out, map[string]any{"id": w.ID().String(), "number_of_tasks": w.NumberOfTasks()})
		}
		return JSON(http.StatusOK, map[string]any{"data": out})
	}, true, false, nil)
}

// NewDispatchController answers POST /api/queues/{queue_name}/dispatch.
func NewDispatchController() *Controller {
	rules := map[string]string{
		"*":    "is_object",
		"task": "is_string",
		"data": "is_object",
	}

	return New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		name := params["queue_name"]
		if !st.QueueExists(name) {
			return Empty(http.StatusNotFound)
		}

		body, ok := decodeBody(r)
		if !ok {
			return Empty(http.StatusUnprocessableEntity)
		}
		taskName, _ := body["task"].(string)
		data, _ := body["data"].(map[string]any)

		_, err := st.Queue(name).Dispatch(taskName, data)
		if err != nil {
			if err == domain.ErrTaskNotFound || err == domain.ErrNotFound {
				return Empty(http.StatusNotFound)
			}
			return Empty(http.StatusInternalServerError)
		}
		return Empty(http.StatusOK)
	}, true, true, rules)
}
