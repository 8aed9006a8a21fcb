package webhook

import (
	"net/http"
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/secret"
	"github.com/rs/zerolog/log"
)

// MiddlewareVerifySecret makes sure that the request carries the configured webhook secret, either as a bearer token
// or inside the 'X-Tripletex-Token' header. Requests are rejected if no secret is configured at all.
func (service *Service) MiddlewareVerifySecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if service.Secret == "" {
			log.Warn().Str("state", string(StateReceived)).Msg("Rejected webhook: no secret is configured.")
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		if !service.authenticated(request) {
			log.Info().Str("state", string(StateReceived)).Str("remote", request.RemoteAddr).Msg("Rejected webhook: invalid credentials.")
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		next.ServeHTTP(writer, request)
	})
}

func (service *Service) authenticated(request *http.Request) bool {
	scheme, token, ok := strings.Cut(strings.TrimSpace(request.Header.Get("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") && secret.Equal(service.Secret, strings.TrimSpace(token)) {
		return true
	}
	if header := request.Header.Get("X-Tripletex-Token"); header != "" {
		return secret.Equal(service.Secret, strings.TrimSpace(header))
	}
	return false
}
