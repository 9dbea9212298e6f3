package session

import (
	"encoding/gob"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
)

// CookieName is shared by the storefront and the seller portal so a login
// carries over between them.
const CookieName = "bookstore_session"

const (
	keyToken    = "token"
	keyUserID   = "user_id"
	keyUserName = "user_name"
	keyEmail    = "email"
	keyRole     = "role"
	keyCurrency = "currency"
	keyTheme    = "theme"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Toast kinds.
const (
	Success = "success"
	Failure = "error"
)

type Toast struct {
	Kind string
	Text string
}

func init() {
	gob.Register(Toast{})
}

// Visitor is the typed view over a session's values.
type Visitor struct {
	Token    string
	UserID   string
	UserName string
	Email    string
	Role     string
	Currency string
	Theme    string
}

func (v Visitor) LoggedIn() bool { return v.Token != "" }

func (v Visitor) IsSeller() bool { return v.Role == "seller" || v.Role == "admin" }

func Load(s *sessions.Session) Visitor {
	str := func(k string) string {
		v, _ := s.Values[k].(string)
		return v
	}
	v := Visitor{
		Token:    str(keyToken),
		UserID:   str(keyUserID),
		UserName: str(keyUserName),
		Email:    str(keyEmail),
		Role:     str(keyRole),
		Currency: str(keyCurrency),
		Theme:    str(keyTheme),
	}
	if v.Theme == "" {
		v.Theme = ThemeLight
	}
	return v
}

// User is what SignIn records about the authenticated account.
type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// SignIn records the account and drops the session id so the next Save
// issues a fresh one.
func SignIn(s *sessions.Session, token string, u User) {
	s.ID = ""
	s.Values[keyToken] = token
	s.Values[keyUserID] = u.ID
	s.Values[keyUserName] = u.Name
	s.Values[keyEmail] = u.Email
	role := u.Role
	if role == "" {
		role = TokenRole(token)
	}
	s.Values[keyRole] = role
}

// SignOut drops the auth values but keeps display preferences.
func SignOut(s *sessions.Session) {
	for _, k := range []string{keyToken, keyUserID, keyUserName, keyEmail, keyRole} {
		delete(s.Values, k)
	}
}

func SetCurrency(s *sessions.Session, code string) { s.Values[keyCurrency] = code }

func SetTheme(s *sessions.Session, theme string) {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	s.Values[keyTheme] = theme
}

func AddToast(s *sessions.Session, kind, text string) {
	s.AddFlash(Toast{Kind: kind, Text: text})
}

// Toasts pops pending toasts. The session must be saved afterwards for
// them to stay consumed.
func Toasts(s *sessions.Session) []Toast {
	var out []Toast
	for _, f := range s.Flashes() {
		if t, ok := f.(Toast); ok {
			out = append(out, t)
		}
	}
	return out
}

// TokenExpired reports whether a JWT's exp claim has passed. The signature
// is not checked here; the API verifies it on every call. Opaque tokens and
// tokens without exp never expire from the frontend's point of view.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// TokenRole reads a "role" claim, if any.
func TokenRole(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}
