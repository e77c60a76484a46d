package web

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/goji/httpauth"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "wavenet"
	sessionKey = "authenticated"
)

type AuthMiddleware struct {
	store sessions.Store
	opts  httpauth.AuthOptions
}

// Setup new middleware for authenticating requests against the given user and password.
func NewAuthMiddleware(user, pass string) AuthMiddleware {
	hashKey := securecookie.GenerateRandomKey(32)
	blockKey := securecookie.GenerateRandomKey(32)
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options.HttpOnly = true
	return AuthMiddleware{
		store: store,
		opts:  httpauth.AuthOptions{Realm: "Restricted", AuthFunc: checkPassword(user, pass)},
	}
}

// If session cookie is not present then use basic auth to login and set a cookie.
func (mw AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, err := mw.store.Get(r, cookieName); err == nil {
			if ok, _ := session.Values[sessionKey].(bool); ok {
				next.ServeHTTP(w, r)
				return
			}
		}
		httpauth.BasicAuth(mw.opts)(mw.setCookie(next)).ServeHTTP(w, r)
	})
}

func (mw AuthMiddleware) setCookie(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := mw.store.Get(r, cookieName)
		session.Values[sessionKey] = true
		if err := session.Save(r, w); err != nil {
			log.Println("error saving session:", err)
		}
		h.ServeHTTP(w, r)
	})
}

func checkPassword(user, pass string) func(string, string, *http.Request) bool {
	return func(u, p string, r *http.Request) bool {
		ok := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1 &&
			subtle.ConstantTimeCompare([]byte(p), []byte(pass)) == 1
		log.Println("auth", u, ok)
		return ok
	}
}
