package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/seatly/concierge/internal/middleware"
)

// NewRouter wires HTTP routes to the handlers.
func NewRouter(chatH *ChatHandler, videoH *VideoHandler, verifyH *VerifyHandler, voiceH *VoiceHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(allowedOrigins))

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		videoH.RegisterRoutes(api)
		verifyH.RegisterRoutes(api)
		api.Get("/voice", voiceH.Handle)
	})

	return r
}
