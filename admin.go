package thegrid

// This file implements the admin surface used by the web UI.  It allows an
// operator to pick the animation being played, reload the animation
// catalog, see what is playing and set values in the UI state shared with
// the animations.
//
// Read only requests are open, every request that changes something needs a
// bearer token obtained by logging in with the admin password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenLifetime = 12 * time.Hour
	tokenSubject  = "admin"
)

// Authorizer decides whether a password presented at login is acceptable
type Authorizer interface {
	Authorize(password string) bool
}

// PasswordAuthorizer accepts a single configured password, an empty password
// accepts nothing
type PasswordAuthorizer struct {
	Password string
}

func (auth *PasswordAuthorizer) Authorize(password string) bool {
	if len(auth.Password) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(auth.Password), []byte(password)) == 1
}

// IssueToken signs an admin token that expires after TokenLifetime
func IssueToken(secret []byte, now time.Time) (token string, err errors.Error) {
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
	}
	token, errGo := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if errGo != nil {
		return "", errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	return token, nil
}

// VerifyToken checks the signature, algorithm and expiry of an admin token
func VerifyToken(secret []byte, token string) (err errors.Error) {
	claims := &jwt.RegisteredClaims{}
	_, errGo := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if errGo != nil {
		return errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	if claims.Subject != tokenSubject {
		return errors.New("token subject is not valid").With("subject", claims.Subject).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

// NewSecret generates a random token signing secret, tokens signed with it
// do not survive a restart
func NewSecret() (secret []byte, err errors.Error) {
	secret = make([]byte, 32)
	if _, errGo := rand.Read(secret); errGo != nil {
		return nil, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	return secret, nil
}

type Admin struct {
	sched   *Scheduler
	auth    Authorizer
	secret  []byte
	viewers http.Handler
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type selectRequest struct {
	Name string `json:"name"`
}

type uiRequest struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type statusResponse struct {
	Current     string   `json:"current"`
	State       string   `json:"state"`
	Animations  []string `json:"animations"`
	Fingerprint string   `json:"fingerprint"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewAdmin creates the admin surface for a scheduler, viewers is the handler
// mounted at /ws and may be nil when there is no viewer feed
func NewAdmin(sched *Scheduler, auth Authorizer, secret []byte, viewers http.Handler) (admin *Admin) {
	return &Admin{
		sched:   sched,
		auth:    auth,
		secret:  secret,
		viewers: viewers,
	}
}

// Handler returns the mux serving the admin API and the viewer feed
func (admin *Admin) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", admin.login)
	mux.HandleFunc("/api/animation", admin.animation)
	mux.HandleFunc("/api/reload", admin.authorized(admin.reload))
	mux.HandleFunc("/api/ui", admin.authorized(admin.setUI))
	if admin.viewers != nil {
		mux.Handle("/ws", admin.viewers)
	}
	return mux
}

func reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if errGo := json.NewEncoder(w).Encode(body); errGo != nil {
		logger.Debug("admin reply failed", "error", errGo.Error())
	}
}

func replyError(w http.ResponseWriter, status int, msg string) {
	reply(w, status, errorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if errGo := json.NewDecoder(r.Body).Decode(into); errGo != nil {
		replyError(w, http.StatusBadRequest, "request body is not valid JSON")
		return false
	}
	return true
}

func onlyMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		replyError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (admin *Admin) verify(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	if err := VerifyToken(admin.secret, strings.TrimPrefix(header, "Bearer ")); err != nil {
		logger.Debug("admin token rejected", "error", err.Error())
		return false
	}
	return true
}

func (admin *Admin) authorized(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !admin.verify(r) {
			replyError(w, http.StatusUnauthorized, "a valid admin token is required")
			return
		}
		handler(w, r)
	}
}

func (admin *Admin) login(w http.ResponseWriter, r *http.Request) {
	if !onlyMethod(w, r, http.MethodPost) {
		return
	}
	req := loginRequest{}
	if !decode(w, r, &req) {
		return
	}
	if admin.auth == nil || !admin.auth.Authorize(req.Password) {
		logger.Warn("admin login refused", "remote", r.RemoteAddr)
		replyError(w, http.StatusUnauthorized, "password not accepted")
		return
	}
	token, err := IssueToken(admin.secret, time.Now())
	if err != nil {
		logger.Warn("admin token could not be issued", "error", err.Error())
		replyError(w, http.StatusInternalServerError, "token could not be issued")
		return
	}
	logger.Info("admin login", "remote", r.RemoteAddr)
	reply(w, http.StatusOK, loginResponse{Token: token})
}

func (admin *Admin) status() statusResponse {
	reg := admin.sched.Registry()
	return statusResponse{
		Current:     admin.sched.Current(),
		State:       admin.sched.State().String(),
		Animations:  reg.Names(),
		Fingerprint: reg.Fingerprint(),
	}
}

func (admin *Admin) animation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		reply(w, http.StatusOK, admin.status())
	case http.MethodPost:
		admin.authorized(admin.selectAnimation)(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		replyError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (admin *Admin) selectAnimation(w http.ResponseWriter, r *http.Request) {
	req := selectRequest{}
	if !decode(w, r, &req) {
		return
	}
	if len(req.Name) == 0 {
		replyError(w, http.StatusBadRequest, "an animation name is required")
		return
	}
	if !admin.sched.Registry().Has(req.Name) {
		replyError(w, http.StatusNotFound, "animation not found")
		return
	}
	if err := admin.sched.Load(req.Name); err != nil {
		logger.Warn("animation could not be selected", "animation", req.Name, "error", err.Error())
		replyError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("animation selected", "animation", req.Name, "remote", r.RemoteAddr)
	reply(w, http.StatusOK, admin.status())
}

func (admin *Admin) reload(w http.ResponseWriter, r *http.Request) {
	if !onlyMethod(w, r, http.MethodPost) {
		return
	}
	if err := admin.sched.Reload(); err != nil {
		logger.Warn("animation reload failed", "error", err.Error())
		replyError(w, http.StatusInternalServerError, err.Error())
		return
	}
	reply(w, http.StatusOK, admin.status())
}

func (admin *Admin) setUI(w http.ResponseWriter, r *http.Request) {
	if !onlyMethod(w, r, http.MethodPost) {
		return
	}
	req := uiRequest{}
	if !decode(w, r, &req) {
		return
	}
	if len(req.Key) == 0 {
		replyError(w, http.StatusBadRequest, "a UI key is required")
		return
	}
	ui := admin.sched.UI()
	ui.Set(req.Key, req.Value)
	reply(w, http.StatusOK, ui.Snapshot())
}
