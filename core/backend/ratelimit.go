// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/relabs-tech/folio/core/logger"
	"golang.org/x/time/rate"
)

// RateLimit allows Max requests per client IP within Window
type RateLimit struct {
	Window time.Duration
	Max    int
}

// Default rate limits
var (
	DefaultRateLimit        = RateLimit{Window: 15 * time.Minute, Max: 100}
	DefaultContactRateLimit = RateLimit{Window: time.Hour, Max: 5}
)

const (
	msgTooManyRequests = "Too many requests, please try again later."
	msgTooManyContacts = "Too many contact submissions, please try again later."
)

func (l RateLimit) orDefault(d RateLimit) RateLimit {
	if l.Window <= 0 || l.Max <= 0 {
		return d
	}
	return l
}

// visitor counts the requests of one client IP within the current window
type visitor struct {
	start time.Time
	hits  int
}

// rateLimiter is a fixed window counter per client IP. A client may send Max
// requests, the count resets when Window has passed since the first of them.
type rateLimiter struct {
	limit   RateLimit
	message string
	now     func() time.Time

	mutex    sync.Mutex
	visitors map[string]*visitor
	sweptAt  time.Time

	// warn throttles the log line for rejected requests
	warn rate.Sometimes
}

func newRateLimiter(limit RateLimit, message string) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		message:  message,
		now:      time.Now,
		visitors: map[string]*visitor{},
		warn:     rate.Sometimes{First: 1, Interval: time.Minute},
	}
}

// allow counts a request of ip. If the window of ip is used up it returns
// false and the time left until the window resets.
func (l *rateLimiter) allow(ip string) (bool, time.Duration) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[ip]
	if !ok || now.Sub(v.start) >= l.limit.Window {
		v = &visitor{start: now}
		l.visitors[ip] = v
	}
	if v.hits >= l.limit.Max {
		return false, v.start.Add(l.limit.Window).Sub(now)
	}
	v.hits++
	return true, 0
}

// sweep forgets visitors whose window has ended. Must be called with the
// mutex held.
func (l *rateLimiter) sweep(now time.Time) {
	if now.Sub(l.sweptAt) < l.limit.Window {
		return
	}
	for ip, v := range l.visitors {
		if now.Sub(v.start) >= l.limit.Window {
			delete(l.visitors, ip)
		}
	}
	l.sweptAt = now
}

// retryAfter formats the time left in a window as whole seconds, at least one
func retryAfter(left time.Duration) string {
	seconds := int(math.Ceil(left.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// Middleware answers 429 without calling h once the client IP used up its window
func (l *rateLimiter) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, left := l.allow(ip)
		if !ok {
			l.warn.Do(func() {
				logger.FromContext(r.Context()).Warnf("rate limit exceeded for %s on %s %s", ip, r.Method, r.URL.Path)
			})
			w.Header().Set("Retry-After", retryAfter(left))
			writeError(w, http.StatusTooManyRequests, l.message)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of the remote address. Behind a proxy the
// address has already been replaced by handlers.ProxyHeaders.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
