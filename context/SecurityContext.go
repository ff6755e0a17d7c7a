package context

import (
	"net/http"
	"strings"
)

// SecurityContext carries the caller's vendor access credential for the
// lifetime of a single request. The token is issued by the authentication
// collaborator and treated as opaque here.
type SecurityContext interface {
	GetUserToken() string
}

func Create(r *http.Request) SecurityContext {
	return &securityContextImpl{token: getAccessToken(r)}
}

func CreateFromToken(token string) SecurityContext {
	return &securityContextImpl{token: token}
}

type securityContextImpl struct {
	token string
}

func (ctx securityContextImpl) GetUserToken() string {
	return ctx.token
}

func getAccessToken(r *http.Request) string {
	if token := getTokenFromAuthHeader(r); token != "" {
		return token
	}
	return getTokenFromCookie(r)
}

func getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func getTokenFromCookie(r *http.Request) string {
	accessTokenCookie, err := r.Cookie("aps-access-token")
	if err != nil {
		return ""
	}
	return accessTokenCookie.Value
}
