package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/osvaldoandrade/hyperdemos/internal/paginate"
	"github.com/osvaldoandrade/hyperdemos/internal/travel"
)

// StateHeader carries the signed travel browsing state between requests.
const StateHeader = "X-State"

const stateIssuer = "hyperdemos"

// TravelState is everything needed to page through one search result
// without repeating the search.
type TravelState struct {
	Search       travel.Search        `json:"search"`
	Destinations []travel.Destination `json:"destinations"`
	Cursor       paginate.Cursor      `json:"cursor"`
	// Selected is the destination whose day plans were last requested.
	Selected string `json:"selected,omitempty"`
}

// Destination finds location among the search results, ignoring case.
func (st TravelState) Destination(location string) (travel.Destination, bool) {
	location = strings.TrimSpace(location)
	for _, d := range st.Destinations {
		if strings.EqualFold(d.Location, location) {
			return d, true
		}
	}
	return travel.Destination{}, false
}

type stateClaims struct {
	jwt.RegisteredClaims
	State TravelState `json:"state"`
}

// StateSigner issues and verifies HS256 state tokens.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration, now func() time.Time) *StateSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: now}
}

func (s *StateSigner) Issue(st TravelState) (string, error) {
	now := s.now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		State: st,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *StateSigner) Parse(token string) (TravelState, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(stateIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return TravelState{}, err
	}
	return claims.State, nil
}

// StateMiddleware requires a valid state token and exposes it under "travel_state".
func StateMiddleware(signer *StateSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(StateHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + StateHeader + " header; run a search first"})
			return
		}
		st, err := signer.Parse(raw)
		if err != nil {
			msg := "invalid state token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "state token expired; run the search again"
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		c.Set("travel_state", st)
		c.Next()
	}
}

// State returns the state stored by StateMiddleware.
func State(c *gin.Context) (TravelState, bool) {
	v, ok := c.Get("travel_state")
	if !ok {
		return TravelState{}, false
	}
	st, ok := v.(TravelState)
	return st, ok
}
