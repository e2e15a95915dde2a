package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

const (
	sessionIssuer = "seatdesk"
	principalKey  = "user"
)

// SessionStore is a gorilla sessions.Store backed by the session table.
// The cookie holds a signed token naming the row; values live server side
// as JSON.
type SessionStore struct {
	rows    store.SessionRowStore
	secret  []byte
	Options *sessions.Options
	now     func() time.Time
}

func NewSessionStore(rows store.SessionRowStore, secret string, opts sessions.Options) *SessionStore {
	return &SessionStore{
		rows:    rows,
		secret:  []byte(secret),
		Options: &opts,
		now:     time.Now,
	}
}

// Get returns the request's session, cached for the life of the request.
func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the cookie. A missing, forged or expired
// cookie yields a fresh session and no error.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	sid, err := s.parseToken(cookie.Value)
	if err != nil {
		return session, nil
	}
	row, err := s.rows.GetSession(r.Context(), sid, s.now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return session, nil
	}
	if err != nil {
		return session, errors.Wrap(err, "load session")
	}
	values, err := decodeSessionValues(row.Data)
	if err != nil {
		return session, nil
	}
	session.ID = sid
	session.Values = values
	session.IsNew = false
	return session, nil
}

// Save writes the row and refreshes the cookie. A negative MaxAge destroys
// both.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options == nil {
		opts := *s.Options
		session.Options = &opts
	}
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.rows.DeleteSession(r.Context(), session.ID); err != nil {
				return errors.Wrap(err, "delete session")
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	data, err := encodeSessionValues(session.Values)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	expire := now.Add(time.Duration(session.Options.MaxAge) * time.Second)
	if err := s.rows.SaveSession(r.Context(), models.Session{ID: session.ID, Data: data, Expire: expire}); err != nil {
		return errors.Wrap(err, "save session")
	}
	token, err := s.signToken(session.ID, now, expire)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), token, session.Options))
	return nil
}

// Regenerate drops the stored row so the next Save issues a new id.
func (s *SessionStore) Regenerate(r *http.Request, session *sessions.Session) error {
	if session.ID != "" {
		if err := s.rows.DeleteSession(r.Context(), session.ID); err != nil {
			return errors.Wrap(err, "rotate session")
		}
	}
	session.ID = ""
	session.IsNew = true
	return nil
}

func (s *SessionStore) signToken(sid string, issued, expire time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sid,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expire),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return signed, errors.Wrap(err, "sign session token")
}

func (s *SessionStore) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session token without id")
	}
	return claims.ID, nil
}

func encodeSessionValues(values map[interface{}]interface{}) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		name, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("session key %v is not a string", key)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrapf(err, "encode session value %q", name)
		}
		out[name] = raw
	}
	return json.Marshal(out)
}

func decodeSessionValues(data []byte) (map[interface{}]interface{}, error) {
	in := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	values := make(map[interface{}]interface{}, len(in))
	for key, raw := range in {
		values[key] = raw
	}
	return values, nil
}

// SessionPrincipal reads the signed-in principal from session values.
func SessionPrincipal(session *sessions.Session) (*Principal, bool) {
	switch v := session.Values[principalKey].(type) {
	case Principal:
		return &v, true
	case *Principal:
		return v, v != nil
	case json.RawMessage:
		var p Principal
		if err := json.Unmarshal(v, &p); err != nil || p.UserID == "" {
			return nil, false
		}
		return &p, true
	}
	return nil, false
}

func SetSessionPrincipal(session *sessions.Session, p Principal) {
	session.Values[principalKey] = p
}
