package server

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	commonhttp "github.com/sngm3741/inspection-intake/api/internal/interfaces/http/common"
)

type authClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// authMiddleware は Authorization ヘッダーから運用者の JWT を検証し、コンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "Authorization ヘッダーがありません", "")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "Bearer トークンを指定してください", "")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "アクセストークンが空です", "")
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, err.Error(), "")
			return
		}

		operator := commonhttp.Operator{
			ID:       claims.Subject,
			Name:     claims.Name,
			Username: claims.PreferredUsername,
		}
		ctx := commonhttp.ContextWithOperator(r.Context(), operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseAuthToken は JWT 設定を順番に試し、署名と Issuer/Audience を検証する。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfigs) == 0 {
		return nil, fmt.Errorf("認証設定が構成されていません")
	}

	for _, cfg := range s.jwtConfigs {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))

		if err != nil || !token.Valid {
			continue
		}
		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		if s.jwtAudience != "" && !slices.Contains(claims.Audience, s.jwtAudience) {
			continue
		}

		return claims, nil
	}

	return nil, fmt.Errorf("アクセストークンが無効です")
}
