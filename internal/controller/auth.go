package controller

import (
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
	"github.com/dispatchengine/engine/internal/state"
	"github.com/dispatchengine/engine/internal/token"
)

// UserLookup resolves a login attempt's email to the stored password
// hash and user id. internal/authdb provides the GORM-backed
// implementation; tests use an in-memory fake.
type UserLookup interface {
	FindByEmail(email string) (id string, passwordHash string, found bool, err error)
}

// NewAttemptController answers POST /api/auth/attempt: look the email
// up, compare the password against its bcrypt hash, and on success
// issue a signed token for the user's id.
func NewAttemptController(issuer *token.Issuer, users UserLookup, ttl time.Duration) *Controller {
	rules := map[string]string{
		"*":        "is_object",
		"email":    "is_string",
		"password": "is_string",
	}

	callback := func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		body, ok := decodeBody(r)
		if !ok {
			return Empty(http.StatusUnprocessableEntity)
		}
		email, _ := body["email"].(string)
		password, _ := body["password"].(string)

		id, hash, found, err := users.FindByEmail(email)
		if err != nil {
			return Empty(http.StatusInternalServerError)
		}
		if !found {
			return JSON(http.StatusUnprocessableEntity, map[string]any{
				"message": "The given data was invalid.",
				"errors":  map[string][]string{"email": {"The email isn't registered."}},
			})
		}

		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
			return JSON(http.StatusUnprocessableEntity, map[string]any{
				"message": "The given data was invalid.",
				"errors":  map[string][]string{"password": {"The password is incorrect."}},
			})
		}

		signed, _, err := issuer.Issue(id, ttl)
		if err != nil {
			return Empty(http.StatusInternalServerError)
		}
		return JSON(http.StatusOK, map[string]any{
			"data": map[string]any{"token": signed},
		})
	}

	return New(callback, false, true, rules)
}

// NewUserController answers GET /api/user with the authenticated
// subject's id, pulled off the context the Kernel's auth gate
// attached.
func NewUserController() *Controller {
	return New(func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
		return JSON(http.StatusOK, map[string]any{
			"data": map[string]any{"id": auth.Sub},
		})
	}, true, false, nil)
}
