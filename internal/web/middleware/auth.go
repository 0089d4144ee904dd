package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/delivery"
	"github.com/conduit-lang/delivery/internal/web/auth"
	webcontext "github.com/conduit-lang/delivery/internal/web/context"
	"github.com/conduit-lang/delivery/internal/web/response"
)

// AccessConfig holds configuration for the delivery access middleware
type AccessConfig struct {
	// APIKeys verifies the Api-Key header
	APIKeys *auth.APIKeyVerifier
	// Members validates member bearer tokens. Nil disables member access.
	Members *auth.MemberTokens
	// RequireAPIKey rejects requests without a valid Api-Key
	RequireAPIKey bool
	Logger        *zap.Logger
}

// DeliveryAccess establishes what the request may see and stores it in the
// request context:
//   - Preview: true requires a valid Api-Key and exposes unpublished content
//   - Authorization: Bearer <token> identifies a member for protected content
//
// An Api-Key that is present but wrong is rejected even when keys are optional.
func DeliveryAccess(config AccessConfig) Middleware {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("Api-Key")
			validKey := apiKey != "" && config.APIKeys != nil && config.APIKeys.Verify(apiKey)

			switch {
			case apiKey != "" && !validKey:
				response.RenderUnauthorized(w, "Invalid API key")
				return
			case config.RequireAPIKey && !validKey:
				response.RenderUnauthorized(w, "API key required")
				return
			}

			preview := strings.EqualFold(r.Header.Get("Preview"), "true")
			if preview && !validKey {
				response.RenderUnauthorized(w, "Preview requires a valid API key")
				return
			}

			access := delivery.Access{Preview: preview}

			if header := r.Header.Get("Authorization"); header != "" {
				token, ok := bearerToken(header)
				if !ok || config.Members == nil {
					response.RenderUnauthorized(w, "Invalid authorization header")
					return
				}
				member, err := config.Members.Validate(token)
				if err != nil {
					config.Logger.Debug("member token rejected",
						zap.String("request_id", webcontext.GetRequestID(r.Context())),
						zap.Error(err),
					)
					response.RenderUnauthorized(w, "Invalid member token")
					return
				}
				access.Member = member
			}

			ctx := webcontext.SetValidAPIKey(r.Context(), validKey)
			ctx = webcontext.SetAccess(ctx, access)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
