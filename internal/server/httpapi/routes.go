package httpapi

import "net/http"

type policy int

const (
	policyPublic policy = iota
	policyAccessToken
)

type route struct {
	method  string
	path    string
	policy  policy
	handler http.HandlerFunc
}

// routes is the single table of exposed endpoints and who may call them.
func (s *Server) routes() []route {
	return []route{
		{http.MethodPost, "/auth/register", policyPublic, s.handleRegister},
		{http.MethodPost, "/auth/login", policyPublic, s.handleLogin},
		{http.MethodPost, "/auth/refresh", policyPublic, s.handleRefresh},
		{http.MethodPost, "/auth/logout", policyPublic, s.handleLogout},
		{http.MethodPost, "/auth/password-reset/request", policyPublic, s.handleRequestPasswordReset},
		{http.MethodPost, "/auth/password-reset/confirm", policyPublic, s.handleResetPassword},
		{http.MethodGet, "/auth/me", policyAccessToken, s.handleMe},
		{http.MethodGet, "/healthz", policyPublic, s.handleHealth},
	}
}
