package bridge

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// requireToken rejects requests that do not carry "Authorization: Bearer
// <token>" or, for browser WebSocket clients that cannot set headers, a
// "token" query parameter. The rejection body is a JSON-RPC error so the extension can
// report it the same way as any other bridge error. An empty token rejects
// everything.
func requireToken(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" && r.URL.Query().Has("token") {
			header = "Bearer " + r.URL.Query().Get("token")
		}
		if !validToken(token, header) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"error": map[string]any{
					"code":    -32600,
					"message": "Unauthorized",
				},
				"id": nil,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validToken(token, header string) bool {
	if token == "" {
		return false
	}
	got, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}
