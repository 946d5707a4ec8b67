package controller

import (
	"net/http"

	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
	"github.com/dispatchengine/engine/internal/state"
)

// NewStatusController answers GET /api/status with an empty 200; it
// carries no policy at all, matching the liveness-probe use case.
func NewStatusController() *Controller {
	return New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		return Empty(http.StatusOK)
	}, false, false, nil)
}
