package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows limit requests per period with a burst of limit.
// Signed-in callers are keyed by account so a shared office IP does not
// starve its users; anonymous callers are keyed by client IP.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	var mu sync.Mutex
	visitors := make(map[string]*visitor)
	every := rate.Every(per / time.Duration(limit))
	lastSweep := time.Now()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateKey(r)
			now := time.Now()

			mu.Lock()
			if now.Sub(lastSweep) > 10*per {
				for k, v := range visitors {
					if now.Sub(v.lastSeen) > 3*per {
						delete(visitors, k)
					}
				}
				lastSweep = now
			}
			v, ok := visitors[key]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(every, limit)}
				visitors[key] = v
			}
			v.lastSeen = now
			res := v.limiter.ReserveN(now, 1)
			wait := res.DelayFrom(now)
			if wait > 0 {
				res.CancelAt(now)
			}
			mu.Unlock()

			if wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many redesign requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if acc, ok := AccountFromContext(r.Context()); ok && acc.ID != "" {
		return "acct:" + acc.ID
	}
	return "ip:" + clientIP(r)
}

// clientIP takes the first valid X-Forwarded-For entry, then the remote host.
func clientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
