package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/hearthly/hearth/internal/auth"
)

// identitytoolkit error envelope: {"error": {"code": 400, "message": "EMAIL_EXISTS"}}.
type accountsError struct {
	Error accountsErrorBody `json:"error"`
}

type accountsErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signUpResponse struct {
	Kind         string `json:"kind"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	Registered   bool   `json:"registered,omitempty"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Kind  string       `json:"kind"`
	Users []lookupUser `json:"users"`
}

type lookupUser struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func respondAccountsError(w http.ResponseWriter, log hclog.Logger, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		respondJSON(w, log, authErr.Code, accountsError{Error: accountsErrorBody{
			Code:    authErr.Code,
			Message: authErr.Message,
		}})
		return
	}
	log.Error("auth internal error", "error", err)
	respondJSON(w, log, http.StatusInternalServerError, accountsError{Error: accountsErrorBody{
		Code:    http.StatusInternalServerError,
		Message: "INTERNAL_ERROR",
	}})
}

func newSessionResponse(kind string, sess *auth.Session, registered bool) signUpResponse {
	return signUpResponse{
		Kind:         kind,
		LocalID:      sess.LocalID,
		Email:        sess.Email,
		IDToken:      sess.IDToken,
		RefreshToken: uuid.New().String(),
		ExpiresIn:    strconv.Itoa(int(sess.ExpiresIn.Seconds())),
		Registered:   registered,
	}
}

// SignUpHandler serves POST /v1/accounts:signUp.
func SignUpHandler(svc *auth.Service, log hclog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondAccountsError(w, log, auth.ErrMissingEmail)
			return
		}
		sess, err := svc.SignUp(req.Email, req.Password)
		if err != nil {
			respondAccountsError(w, log, err)
			return
		}
		respondJSON(w, log, http.StatusOK,
			newSessionResponse("identitytoolkit#SignupNewUserResponse", sess, false))
	})
}

// SignInHandler serves POST /v1/accounts:signInWithPassword.
func SignInHandler(svc *auth.Service, log hclog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondAccountsError(w, log, auth.ErrEmailNotFound)
			return
		}
		sess, err := svc.SignInWithPassword(req.Email, req.Password)
		if err != nil {
			respondAccountsError(w, log, err)
			return
		}
		respondJSON(w, log, http.StatusOK,
			newSessionResponse("identitytoolkit#VerifyPasswordResponse", sess, true))
	})
}

// LookupHandler serves POST /v1/accounts:lookup.
func LookupHandler(svc *auth.Service, log hclog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondAccountsError(w, log, auth.ErrInvalidIDToken)
			return
		}
		account, err := svc.Lookup(req.IDToken)
		if err != nil {
			respondAccountsError(w, log, err)
			return
		}
		respondJSON(w, log, http.StatusOK, lookupResponse{
			Kind: "identitytoolkit#GetAccountInfoResponse",
			Users: []lookupUser{{
				LocalID:     account.LocalID,
				Email:       account.Email,
				DisplayName: account.DisplayName,
				CreatedAt:   fmt.Sprintf("%d", account.CreatedAt.UnixMilli()),
			}},
		})
	})
}

// DeleteAccountHandler serves POST /v1/accounts:delete.
func DeleteAccountHandler(svc *auth.Service, log hclog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondAccountsError(w, log, auth.ErrInvalidIDToken)
			return
		}
		if err := svc.DeleteAccount(req.IDToken); err != nil {
			respondAccountsError(w, log, err)
			return
		}
		respondJSON(w, log, http.StatusOK, map[string]string{
			"kind": "identitytoolkit#DeleteAccountResponse",
		})
	})
}
