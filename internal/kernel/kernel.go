// Package kernel implements the engine's seven-step request pipeline:
// CORS preflight, routing, validation, authentication, dispatch,
// response adornment, and error mapping. It decides the status codes
// of every step before dispatch; the controller decides the rest.
package kernel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dispatchengine/engine/internal/controller"
	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
	"github.com/dispatchengine/engine/internal/pkg/logger"
	"github.com/dispatchengine/engine/internal/state"
	"github.com/dispatchengine/engine/internal/token"
	"github.com/dispatchengine/engine/internal/validate"
)

var tracer = otel.Tracer("github.com/dispatchengine/engine/internal/kernel")

const allowHeaders = "Accept,Authorization,Content-Type"

// Handle runs request through the seven-step pipeline and always
// returns a non-nil response, recovering a Callback panic into a 500
// rather than letting it escape to the caller.
func Handle(ctx context.Context, st *state.State, issuer *token.Issuer, log *logger.Logger, r *http.Request) (resp *controller.Response) {
	ctx, span := tracer.Start(ctx, "kernel.handle", trace.WithAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.target", r.URL.Path),
	))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("kernel: recovered panic", "panic", rec, "path", r.URL.Path)
			span.SetStatus(codes.Error, "panic recovered")
			resp = withCORS(controller.Empty(http.StatusInternalServerError))
		}
	}()

	// Step 1: CORS preflight.
	if r.Method == http.MethodOptions {
		methods := st.Router().MethodsOf(r.URL.Path)
		joined := strings.Join(methods, ",")
		h := http.Header{}
		h.Set("Access-Control-Allow-Methods", joined)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Origin", "*")
		return &controller.Response{Status: http.StatusNoContent, Header: h}
	}

	// Step 2: routing.
	params, route, err := st.Router().Find(r.Method, r.URL.Path)
	if err != nil {
		return withCORS(controller.Empty(http.StatusNotFound))
	}
	ctrl := route.Controller().(*controller.Controller)

	// Step 3: validation gate.
	if ctrl.Validated() {
		var raw []byte
		if r.Body != nil {
			raw, _ = io.ReadAll(r.Body)
			r.Body.Close()
		}
		var decoded any
		if len(strings.TrimSpace(string(raw))) == 0 || json.Unmarshal(raw, &decoded) != nil {
			return withCORS(controller.JSON(http.StatusUnprocessableEntity, map[string]any{
				"message": "The given data was invalid.",
				"errors":  map[string][]string{"*": {"The payload must be a valid json value."}},
			}))
		}
		errs, ok := validate.Validate(ctrl.Rules(), decoded)
		if !ok {
			return withCORS(controller.JSON(http.StatusUnprocessableEntity, map[string]any{
				"message": "The given data was invalid.",
				"errors":  errs,
			}))
		}
		if body, isObj := decoded.(map[string]any); isObj {
			ctx = ctxutil.WithBody(ctx, body)
		}
	}

	// Step 4: authentication gate.
	var auth *ctxutil.AuthData
	if ctrl.Authenticated() {
		header := r.Header.Get("Authorization")
		if header == "" {
			return withCORS(controller.Empty(http.StatusUnauthorized))
		}
		auth, err = issuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return withCORS(controller.Empty(http.StatusUnauthorized))
		}
		ctx = ctxutil.WithAuth(ctx, auth)
	}

	// Step 5: dispatch.
	resp = ctrl.Call(st, r.WithContext(ctx), params, auth)
	if resp == nil {
		resp = controller.Empty(http.StatusInternalServerError)
	}

	// Step 6: response adornment.
	return withCORS(resp)

	// Step 7 (error mapping) is the deferred recover above.
}

func withCORS(resp *controller.Response) *controller.Response {
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	resp.Header.Set("Access-Control-Allow-Origin", "*")
	return resp
}
