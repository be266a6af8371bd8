package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ProductsAPI/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Log      *zap.Logger
	Creds    *Credentials
	JWT      *TokenMaker
	TokenTTL time.Duration
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	TokenType   string `json:"tokenType"`
	AccessToken string `json:"accessToken"`
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	if err := s.Creds.Verify(req.Username, req.Password); err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	tok, err := s.JWT.New(req.Username, ttl)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{TokenType: "Bearer", AccessToken: tok})
}

// HandleCheck echoes the authenticated principal; useful for probing a token.
func (s *Server) HandleCheck(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
	})
}
