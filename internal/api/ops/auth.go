package ops

import (
	"net/http"
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/secret"
)

// MiddlewareVerifyToken makes sure that the requesting client has provided the configured operations API token
func (service *Service) MiddlewareVerifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// Try to read the 'Authorization' header and verify it is of type 'Bearer'
		scheme, token, ok := strings.Cut(request.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || !secret.Equal(service.Token, strings.TrimSpace(token)) {
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		// Delegate to the next handler
		next.ServeHTTP(writer, request)
	})
}
