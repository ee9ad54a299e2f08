// Package auth implements the authentication emulator: a flat account
// table with signUp, signInWithPassword, lookup and delete, speaking
// the identitytoolkit v1 request and response shapes. It is unrelated
// to the document store beyond sharing the process.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hearthly/hearth/internal/config"
)

const tokenIssuer = "hearth-auth-emulator"

const tokenLifetime = time.Hour

// Error is an identitytoolkit-style failure with the message code the
// real service returns (EMAIL_EXISTS, INVALID_PASSWORD, ...).
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEmailExists     = &Error{Code: http.StatusBadRequest, Message: "EMAIL_EXISTS"}
	ErrEmailNotFound   = &Error{Code: http.StatusBadRequest, Message: "EMAIL_NOT_FOUND"}
	ErrInvalidPassword = &Error{Code: http.StatusBadRequest, Message: "INVALID_PASSWORD"}
	ErrUserNotFound    = &Error{Code: http.StatusBadRequest, Message: "USER_NOT_FOUND"}
	ErrInvalidIDToken  = &Error{Code: http.StatusBadRequest, Message: "INVALID_ID_TOKEN"}
	ErrWeakPassword    = &Error{Code: http.StatusBadRequest, Message: "WEAK_PASSWORD : Password should be at least 6 characters"}
	ErrMissingEmail    = &Error{Code: http.StatusBadRequest, Message: "MISSING_EMAIL"}
	ErrInvalidEmail    = &Error{Code: http.StatusBadRequest, Message: "INVALID_EMAIL"}
)

// Service owns the account table.
type Service struct {
	db  *gorm.DB
	log hclog.Logger
	now func() time.Time
}

// NewService opens (and migrates) the account database.
func NewService(log hclog.Logger, cfg *config.Auth) (*Service, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening auth database: %w", err)
	}
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, fmt.Errorf("error migrating auth database: %w", err)
	}
	return &Service{db: db, log: log.Named("auth"), now: time.Now}, nil
}

// Session is the result of a successful signUp or sign-in.
type Session struct {
	LocalID   string
	Email     string
	IDToken   string
	ExpiresIn time.Duration
}

// SignUp creates an account and returns a fresh session for it.
func (s *Service) SignUp(email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrMissingEmail
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	account := &Account{
		LocalID:  strings.ReplaceAll(uuid.New().String(), "-", ""),
		Email:    email,
		Password: password,
	}
	existing := &Account{}
	if err := existing.GetByEmail(s.db, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking for existing account: %w", err)
	}
	if err := account.Create(s.db); err != nil {
		if strings.Contains(err.Error(), "validation error") {
			return nil, ErrInvalidEmail
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Debug("account created", "email", email, "local_id", account.LocalID)
	return s.session(account)
}

// SignInWithPassword checks the credentials and returns a session.
func (s *Service) SignInWithPassword(email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account := &Account{}
	if err := account.GetByEmail(s.db, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	if account.Password != password {
		return nil, ErrInvalidPassword
	}
	return s.session(account)
}

// Lookup resolves an id token to its account.
func (s *Service) Lookup(idToken string) (*Account, error) {
	localID, err := s.parseToken(idToken)
	if err != nil {
		return nil, err
	}
	account := &Account{}
	if err := account.GetByLocalID(s.db, localID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account, nil
}

// DeleteAccount removes the account the id token belongs to.
func (s *Service) DeleteAccount(idToken string) error {
	localID, err := s.parseToken(idToken)
	if err != nil {
		return err
	}
	removed, err := DeleteByLocalID(s.db, localID)
	if err != nil {
		return fmt.Errorf("error deleting account: %w", err)
	}
	if !removed {
		return ErrUserNotFound
	}
	s.log.Debug("account deleted", "local_id", localID)
	return nil
}

// session issues an unsigned emulator id token, as the real emulator
// does (alg "none"), so client SDKs can decode the claims offline.
func (s *Service) session(account *Account) (*Session, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"iss":     tokenIssuer,
		"aud":     tokenIssuer,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenLifetime).Unix(),
		"user_id": account.LocalID,
		"sub":     account.LocalID,
		"email":   account.Email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		return nil, fmt.Errorf("error signing id token: %w", err)
	}
	return &Session{
		LocalID:   account.LocalID,
		Email:     account.Email,
		IDToken:   token,
		ExpiresIn: tokenLifetime,
	}, nil
}

func (s *Service) parseToken(idToken string) (string, error) {
	if idToken == "" {
		return "", ErrInvalidIDToken
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return "", ErrInvalidIDToken
	}
	localID, _ := claims["user_id"].(string)
	if localID == "" {
		return "", ErrInvalidIDToken
	}
	return localID, nil
}
