package rest

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/common"
	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/services"
)

const (
	ProtectedPrefix = "/admin"
	LoginPath       = "/admin/login"
)

// guardExclusion lists the paths the page guard never looks at.
var guardExclusion = regexp.MustCompile(`^/(api|_next/static|_next/image|static|favicon\.ico)(/|$)`)

var identityHeaders = []string{common.HeaderUserID, common.HeaderUserRole, common.HeaderUsername}

func isProtected(path string) bool {
	if guardExclusion.MatchString(path) {
		return false
	}
	return path == ProtectedPrefix || strings.HasPrefix(path, ProtectedPrefix+"/")
}

// SessionGuard protects the admin pages. Requests without a usable session
// cookie are redirected to the login page with the original target in the
// redirect parameter; a rejected cookie is also cleared. It never touches
// the database.
func (s *Server) SessionGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range identityHeaders {
			r.Header.Del(h)
		}

		if !isProtected(r.URL.Path) || r.URL.Path == LoginPath {
			next.ServeHTTP(w, r)
			return
		}

		token := authToken(r)
		if token == "" {
			s.redirectToLogin(w, r)
			return
		}

		claims := s.auth.VerifyToken(token)
		if claims == nil || !s.now().Before(claims.Expiry()) {
			s.clearAuthCookie(w)
			s.redirectToLogin(w, r)
			return
		}

		next.ServeHTTP(w, withIdentity(r, claims.Identity()))
	})
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// withIdentity attaches id to the request context and mirrors it into the
// identity headers for downstream handlers.
func withIdentity(r *http.Request, id *auth.Identity) *http.Request {
	r = r.WithContext(auth.WithIdentity(r.Context(), id))
	r.Header.Set(common.HeaderUserID, id.UserID)
	r.Header.Set(common.HeaderUserRole, string(id.Role))
	r.Header.Set(common.HeaderUsername, id.Username)
	return r
}

// RequireSession is the API counterpart of SessionGuard: it answers 401
// instead of redirecting.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := s.auth.VerifyToken(authToken(r))
		if claims == nil || !s.now().Before(claims.Expiry()) {
			respondError(w, http.StatusUnauthorized, string(services.CodeUnauthorized), "Authentication required")
			return
		}
		next.ServeHTTP(w, withIdentity(r, claims.Identity()))
	})
}

// RequireSuperadmin re-reads the caller's account so a demoted or
// deactivated user loses access before their token expires. It must run
// after RequireSession.
func (s *Server) RequireSuperadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, string(services.CodeUnauthorized), "Authentication required")
			return
		}

		user, err := s.auth.CurrentUser(r.Context(), id.UserID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if !user.IsSuperAdmin() {
			respondError(w, http.StatusForbidden, string(services.CodeUnauthorized), "Superadmin access required")
			return
		}

		live := &auth.Identity{UserID: user.ID, Username: user.Username, Role: user.Role}
		next.ServeHTTP(w, withIdentity(r, live))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
			"ip", s.clientIP(r),
		)
	})
}

// clientIP returns the peer address. Only when the peer is a trusted proxy
// are forwarding headers read: X-Forwarded-For is walked from the right,
// skipping trusted hops, with X-Real-IP as the fallback.
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !s.isTrustedProxy(peer) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !s.isTrustedProxy(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func (s *Server) isTrustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func (s *Server) requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{IP: s.clientIP(r), UserAgent: r.UserAgent()}
}
