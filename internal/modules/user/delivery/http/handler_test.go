package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"anoa.com/yamdb/internal/modules/user/dto"
	"anoa.com/yamdb/pkg/apperror"
	"anoa.com/yamdb/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validator.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubAuthService struct {
	register func(dto.SignupRequest) (*dto.SignupResponse, error)
	confirm  func(dto.TokenRequest) (*dto.TokenResponse, error)
}

func (s *stubAuthService) Register(_ context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	return s.register(req)
}

func (s *stubAuthService) Confirm(_ context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	return s.confirm(req)
}

func newAuthRouter(svc *stubAuthService) *gin.Engine {
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/token", h.Token)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignup(t *testing.T) {
	svc := &stubAuthService{register: func(req dto.SignupRequest) (*dto.SignupResponse, error) {
		return &dto.SignupResponse{Email: req.Email, Username: req.Username}, nil
	}}
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/signup", gin.H{"email": "a@x.com", "username": "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"a@x.com","username":"alice"}`, w.Body.String())
}

func TestSignupValidation(t *testing.T) {
	called := false
	svc := &stubAuthService{register: func(dto.SignupRequest) (*dto.SignupResponse, error) {
		called = true
		return nil, nil
	}}
	r := newAuthRouter(svc)

	tests := []struct {
		name  string
		body  gin.H
		field string
	}{
		{"missing email", gin.H{"username": "alice"}, "email"},
		{"bad email", gin.H{"email": "nope", "username": "alice"}, "email"},
		{"reserved username", gin.H{"email": "a@x.com", "username": "me"}, "username"},
		{"bad username", gin.H{"email": "a@x.com", "username": "al ice"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/auth/signup", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var body struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "validation failed", body.Error)
			assert.Contains(t, body.Fields, tt.field)
		})
	}
	assert.False(t, called)
}

func TestSignupMailFailureHidesDetails(t *testing.T) {
	svc := &stubAuthService{register: func(dto.SignupRequest) (*dto.SignupResponse, error) {
		return nil, fmt.Errorf("send confirmation code: %w", errors.New("dial tcp: refused"))
	}}
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/signup", gin.H{"email": "a@x.com", "username": "alice"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "dial tcp")
}

func TestToken(t *testing.T) {
	svc := &stubAuthService{confirm: func(req dto.TokenRequest) (*dto.TokenResponse, error) {
		switch req.Username {
		case "ghost":
			return nil, apperror.ErrNotFound
		case "alice":
			if req.ConfirmationCode == "good" {
				return &dto.TokenResponse{Token: "jwt"}, nil
			}
		}
		return nil, apperror.NewValidation("confirmation_code", "invalid or expired confirmation code")
	}}
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/token", gin.H{"username": "alice", "confirmation_code": "good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"jwt"}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/auth/token", gin.H{"username": "alice", "confirmation_code": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/token", gin.H{"username": "ghost", "confirmation_code": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/token", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
