package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"github.com/o2gather/backend/internal/middleware"
	"github.com/o2gather/backend/internal/model"
	"github.com/o2gather/backend/internal/service"
)

const oauthStateKey = "oauth_state"

// AuthCodeURLProvider builds the Google consent URL for a state value.
// *oauth2.Config satisfies this.
type AuthCodeURLProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
}

// AuthHandler handles login, logout, and the OAuth code flow
type AuthHandler struct {
	authService *service.AuthService
	store       sessions.Store
	oauth       AuthCodeURLProvider
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, store sessions.Store, oauth AuthCodeURLProvider) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
		oauth:       oauth,
	}
}

// Login handles POST /api/login - Google sign-in button credential.
//
// The button posts a form with the ID token plus a g_csrf_token that
// Google also sets as a cookie; both copies must match before the
// credential is trusted.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, model.NewBadRequestError("invalid form body"))
		return
	}

	csrfForm := r.PostFormValue("g_csrf_token")
	csrfCookie, err := r.Cookie("g_csrf_token")
	if csrfForm == "" || err != nil || csrfCookie.Value != csrfForm {
		WriteError(w, MapServiceError(service.ErrCSRFMismatch))
		return
	}

	credential := r.PostFormValue("credential")
	if credential == "" {
		WriteError(w, model.NewBadRequestError("credential required"))
		return
	}

	user, rawToken, err := h.authService.LoginWithCredential(r.Context(), credential)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	if err := h.saveSessionToken(w, r, rawToken); err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{
		"self": "/api/users/" + user.ID,
	})
}

// GoogleRedirect handles GET /api/auth/google - start the code flow
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}

	session, _ := h.store.Get(r, middleware.SessionName)
	session.Values[oauthStateKey] = state
	if err := session.Save(r, w); err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback handles GET /api/auth/google/callback - finish the code flow
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	session, _ := h.store.Get(r, middleware.SessionName)

	wantState, _ := session.Values[oauthStateKey].(string)
	delete(session.Values, oauthStateKey)
	if wantState == "" || r.URL.Query().Get("state") != wantState {
		WriteError(w, MapServiceError(service.ErrCSRFMismatch))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		WriteError(w, model.NewBadRequestError("authorization code required"))
		return
	}

	user, rawToken, err := h.authService.LoginWithCode(r.Context(), code)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	session.Values[middleware.SessionTokenKey] = rawToken
	if err := session.Save(r, w); err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{
		"self": "/api/users/" + user.ID,
	})
}

// Logout handles POST /api/logout. Always succeeds, even without a
// live session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.store.Get(r, middleware.SessionName)

	if rawToken, ok := session.Values[middleware.SessionTokenKey].(string); ok {
		_ = h.authService.Logout(r.Context(), rawToken)
	}

	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	WriteNoContent(w)
}

func (h *AuthHandler) saveSessionToken(w http.ResponseWriter, r *http.Request, rawToken string) error {
	session, _ := h.store.Get(r, middleware.SessionName)
	session.Values[middleware.SessionTokenKey] = rawToken
	return session.Save(r, w)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
