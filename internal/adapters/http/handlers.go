package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/stockdeck/stockdeck/internal/ports"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

// authMiddleware validates the bearer token and attaches claims to the context.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		claims, err := h.service.ValidateToken(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeMappedError(w, "validate_token", err)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(ctx context.Context) (ports.AuthClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(ports.AuthClaims)
	return claims, ok
}
