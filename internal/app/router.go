package app

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	gqlhandler "github.com/99designs/gqlgen/graphql/handler"

	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	gqlpkg "github.com/heartmarshall/salesdesk-backend/internal/transport/graphql"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/dataloader"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/generated"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/resolver"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/live"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/middleware"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/rest"
)

type tokenValidator interface {
	ValidateAccessToken(token string) (domain.Principal, error)
}

// RouterDeps are the collaborators of the HTTP router.
type RouterDeps struct {
	Config   *config.Config
	Services *Services
	Store    docstore.Store
	Health   map[string]rest.Pinger
	Tokens   tokenValidator
	Logger   *slog.Logger
}

// NewRouter builds the HTTP handler: health checks without auth, everything else
// behind the principal middleware. The returned stop func releases the
// rate limiter.
func NewRouter(d RouterDeps) (http.Handler, func()) {
	components := maps.Clone(d.Health)
	if components == nil {
		components = map[string]rest.Pinger{}
	}
	for name, check := range d.Services.mirrorHealth() {
		components[name] = rest.PingFunc(func(context.Context) error { return check() })
	}

	mux := http.NewServeMux()
	rest.NewHealthHandler(components, BuildVersion()).Routes(mux)

	api := http.NewServeMux()
	rest.NewQuoteHandler(d.Services.Quotes, d.Config.FollowUp.Location, d.Logger).Routes(api)
	rest.NewSaleHandler(d.Services.Sales, d.Logger).Routes(api)
	rest.NewSettingsHandler(d.Services.Settings, d.Logger).Routes(api)

	liveOpts := live.Options{OriginPatterns: originPatterns(d.Config.CORS.AllowedOrigins)}
	api.Handle("GET /live/quotes", live.Handler(d.Store, live.QuoteStream(d.Config.FollowUp.Location, time.Now), liveOpts, d.Logger))
	api.Handle("GET /live/sales", live.Handler(d.Store, live.SaleStream(), liveOpts, d.Logger))

	res := resolver.NewResolver(d.Logger, d.Services.Quotes, d.Services.Sales, d.Services.Settings, d.Config.FollowUp.Location)
	gqlSrv := gqlhandler.NewDefaultServer(generated.NewExecutableSchema(generated.Config{Resolvers: res}))
	gqlSrv.SetErrorPresenter(gqlpkg.NewErrorPresenter(d.Logger))
	graphqlHandler := dataloader.Middleware(&dataloader.Sources{Quotes: d.Services.Quotes})(gqlSrv)
	api.Handle("POST /query", graphqlHandler)
	api.Handle("OPTIONS /query", graphqlHandler)

	limiter := middleware.NewRateLimiter(time.Minute)
	apiHandler := middleware.Chain(
		middleware.Recovery(d.Logger),
		middleware.RequestID,
		middleware.CORS(d.Config.CORS),
		middleware.Auth(d.Tokens),
		limiter.Limit(d.Config.Server.RateLimit),
		middleware.Logger(d.Logger),
	)(api)

	for _, pattern := range []string{"/quotes", "/quotes/", "/sales", "/sales/", "/settings/", "/live/", "/query"} {
		mux.Handle(pattern, apiHandler)
	}

	return mux, limiter.Stop
}

func originPatterns(allowed string) []string {
	var out []string
	for _, o := range strings.Split(allowed, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		// websocket origin patterns match hosts, not full origins
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, o)
	}
	return out
}
