package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// SessionIDKey is the key used to store the session id in context
	SessionIDKey = "session_id"

	// SessionCookieName names the signed session cookie
	SessionCookieName = "session"

	sessionIssuer = "viswords-api"
)

// ErrInvalidSession is returned for tokens that fail signature or claim checks
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims is the payload of the session cookie
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	SecretKey string
	MaxAge    time.Duration
	Secure    bool
}

// SessionManager signs and verifies session cookies with SECRET_KEY
type SessionManager struct {
	config SessionConfig
	now    func() time.Time
}

// NewSessionManager creates a session manager; the secret must be non-empty
func NewSessionManager(config SessionConfig) (*SessionManager, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("session secret key is required")
	}
	if config.MaxAge == 0 {
		config.MaxAge = 7 * 24 * time.Hour
	}
	return &SessionManager{config: config, now: time.Now}, nil
}

// Issue signs a token for sessionID
func (s *SessionManager) Issue(sessionID string) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.MaxAge)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

// Verify parses a session token and returns its session id
func (s *SessionManager) Verify(token string) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidSession
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", fmt.Errorf("%w: bad session id", ErrInvalidSession)
	}
	return claims.SessionID, nil
}

// Session attaches a session id to every request, issuing a fresh signed
// cookie when the client has none or presents one that does not verify
func Session(sessions *SessionManager, logger *logrus.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return func(c *gin.Context) {
		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			sid, err := sessions.Verify(cookie)
			if err == nil {
				c.Set(SessionIDKey, sid)
				c.Next()
				return
			}
			logger.WithError(err).WithField("request_id", c.GetString(RequestIDKey)).Debug("Discarding session cookie")
		}

		sid := uuid.New().String()
		token, err := sessions.Issue(sid)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(sessions.config.MaxAge.Seconds()),
			HttpOnly: true,
			Secure:   sessions.config.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}
