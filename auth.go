package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour // 7 days
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

// Auth handles pilot account authentication
type Auth struct {
	db        *DB
	jwtSecret []byte

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// Register creates a new pilot account and returns its id and a token
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if a.db == nil {
		return 0, "", fmt.Errorf("accounts unavailable")
	}

	existing, err := a.db.GetPilotByUsername(username)
	if err != nil {
		return 0, "", err
	}
	if existing != nil {
		return 0, "", fmt.Errorf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", err
	}

	id, err := a.db.CreatePilot(username, string(hash))
	if err != nil {
		return 0, "", err
	}

	token, err := a.issueToken(id, username)
	if err != nil {
		return 0, "", err
	}
	return id, token, nil
}

// Login authenticates an existing pilot. Attempts are rate limited
// per remote address.
func (a *Auth) Login(username, password, addr string) (int64, string, error) {
	if !a.allowAttempt(addr) {
		return 0, "", fmt.Errorf("too many login attempts, try again later")
	}
	if a.db == nil {
		return 0, "", fmt.Errorf("accounts unavailable")
	}

	pilot, err := a.db.GetPilotByUsername(strings.TrimSpace(username))
	if err != nil {
		return 0, "", err
	}
	if pilot == nil {
		return 0, "", fmt.Errorf("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(pilot.PassHash), []byte(password)) != nil {
		return 0, "", fmt.Errorf("invalid username or password")
	}

	token, err := a.issueToken(pilot.ID, pilot.Username)
	if err != nil {
		return 0, "", err
	}
	return pilot.ID, token, nil
}

// ValidateToken verifies a previously issued token and returns the
// pilot id and username it carries
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid subject")
	}
	name, ok := claims["name"].(string)
	if !ok {
		return 0, "", fmt.Errorf("invalid name")
	}
	return int64(sub), name, nil
}

func (a *Auth) issueToken(id int64, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id,
		"name": username,
		"iat":  now.Unix(),
		"exp":  now.Add(jwtExpiry).Unix(),
	})
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) allowAttempt(addr string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()
	now := time.Now()
	e := a.rateMap[addr]
	if e == nil || now.After(e.ResetAt) {
		a.rateMap[addr] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	e.Count++
	return e.Count <= maxLoginAttempts
}
