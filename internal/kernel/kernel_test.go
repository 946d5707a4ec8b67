package kernel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dispatchengine/engine/internal/controller"
	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
	"github.com/dispatchengine/engine/internal/pkg/logger"
	"github.com/dispatchengine/engine/internal/router"
	"github.com/dispatchengine/engine/internal/state"
	"github.com/dispatchengine/engine/internal/token"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func newTestApp(t *testing.T) (*state.State, *token.Issuer) {
	t.Helper()
	rt := router.New()

	statusCtrl := controller.New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *controller.Response {
		return controller.Empty(http.StatusOK)
	}, false, false, nil)
	statusRoute, err := router.New([]string{"GET"}, "/api/status", statusCtrl)
	if err != nil {
		t.Fatalf("router.New(status): %v", err)
	}
	rt.Add(statusRoute)

	dispatchCtrl := controller.New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *controller.Response {
		return controller.Empty(http.StatusOK)
	}, false, true, map[string]string{"*": "is_object", "task": "is_string"})
	dispatchRoute, err := router.New([]string{"POST"}, "/api/dispatch", dispatchCtrl)
	if err != nil {
		t.Fatalf("router.New(dispatch): %v", err)
	}
	rt.Add(dispatchRoute)

	userCtrl := controller.New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *controller.Response {
		return controller.JSON(http.StatusOK, map[string]any{"data": map[string]any{"id": auth.Sub}})
	}, true, false, nil)
	userRoute, err := router.New([]string{"GET"}, "/api/user", userCtrl)
	if err != nil {
		t.Fatalf("router.New(user): %v", err)
	}
	rt.Add(userRoute)

	st := state.New(rt, "test-key", nil)
	issuer := token.New([]byte("test-secret"), nil)
	return st, issuer
}

func TestHandleCORSPreflightListsRouteMethods(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/dispatch", nil)
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Status)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Fatalf("expected Allow-Methods POST, got %q", got)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS origin wildcard")
	}
}

func TestHandleUnknownRouteIs404(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestHandleValidationGateRejectsEmptyBody(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dispatch", strings.NewReader(""))
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "must be a valid json value") {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
}

func TestHandleValidationGateRejectsMissingAttribute(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dispatch", strings.NewReader("{}"))
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "Attribute task is required.") {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
}

func TestHandleAuthGateRejectsMissingHeader(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Status)
	}
}

func TestHandleAuthGateRejectsBadToken(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Status)
	}
}

func TestHandleAuthGateAcceptsValidToken(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	signed, _, err := issuer.Issue("6a1e2f3b-7c4d-4b5e-8f9a-0b1c2d3e4f5a", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Status, resp.Body)
	}
}

func TestHandleSuccessResponseCarriesCORSHeader(t *testing.T) {
	st, issuer := newTestApp(t)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS origin wildcard on the adorned response")
	}
}

func TestHandleRecoversControllerPanic(t *testing.T) {
	rt := router.New()
	panicking := controller.New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *controller.Response {
		panic("boom")
	}, false, false, nil)
	route, err := router.New([]string{"GET"}, "/api/panics", panicking)
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	rt.Add(route)

	st := state.New(rt, "test-key", nil)
	issuer := token.New([]byte("test-secret"), nil)
	log := testLogger(t)

	req := httptest.NewRequest(http.MethodGet, "/api/panics", nil)
	resp := Handle(context.Background(), st, issuer, log, req)

	if resp.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Status)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected the panic-mapped response to still carry CORS headers")
	}
}
