package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists what browsers on AllowedOrigins may send and read. "*" allows any origin.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type corsRules struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
}

func (c corsRules) allowOrigin(origin string) (string, bool) {
	if _, ok := c.origins[strings.ToLower(origin)]; ok {
		return origin, true
	}
	if !c.anyOrigin {
		return "", false
	}
	// Credentialed responses may not use the literal wildcard.
	if c.credentials {
		return origin, true
	}
	return "*", true
}

// WithCORS answers preflights for allowed origins and decorates their responses. It is a
// no-op when no origin is configured.
func WithCORS(cfg CORSPolicy) Middleware {
	rules := corsRules{
		origins:     make(map[string]struct{}),
		credentials: cfg.AllowCredentials,
		methods:     joinTrimmed(cfg.AllowedMethods),
		headers:     joinTrimmed(cfg.AllowedHeaders),
		exposed:     joinTrimmed(cfg.ExposedHeaders),
	}
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			rules.anyOrigin = true
		default:
			rules.origins[strings.ToLower(o)] = struct{}{}
		}
	}
	if secs := int(cfg.MaxAge / time.Second); secs > 0 {
		rules.maxAge = strconv.Itoa(secs)
	}
	if !rules.anyOrigin && len(rules.origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed, ok := rules.allowOrigin(origin)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", allowed)
			if rules.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if rules.exposed != "" {
				h.Set("Access-Control-Expose-Headers", rules.exposed)
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			setIf(h, "Access-Control-Allow-Methods", rules.methods)
			setIf(h, "Access-Control-Allow-Headers", rules.headers)
			setIf(h, "Access-Control-Max-Age", rules.maxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

func joinTrimmed(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}
