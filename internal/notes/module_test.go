package notes

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tclzcja/apiserver/internal/pkg/pkgauth"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
)

func TestNewRegistersPublicRoutes(t *testing.T) {
	router := pkgrouter.NewRouter(pkgrouter.Options{})

	closer, err := New(Dependency{Router: router})
	require.NoError(t, err)
	require.NotNil(t, closer)

	assert.Equal(t, []pkgrouter.Route{
		{Key: "/count", Method: http.MethodGet},
		{Key: "/echo", Method: http.MethodPost},
		{Key: "/imports", Method: http.MethodGet},
		{Key: "/imports", Method: http.MethodPost},
		{Key: "/notes", Method: http.MethodDelete},
		{Key: "/notes", Method: http.MethodGet},
		{Key: "/notes", Method: http.MethodPost},
		{Key: "/tags", Method: http.MethodGet},
	}, router.Routes())

	require.NoError(t, closer(context.Background()))
}

func TestNewRegistersAuthRoutes(t *testing.T) {
	jwt, err := pkgauth.NewJWT("module-test-secret-long-enough-for-hmac", time.Hour)
	require.NoError(t, err)

	router := pkgrouter.NewRouter(pkgrouter.Options{AuthVerify: jwt.Verify, AuthSign: jwt.Sign})
	closer, err := New(Dependency{
		Router:      router,
		JWT:         jwt,
		Credentials: pkgauth.NewCredentials(nil),
	})
	require.NoError(t, err)
	defer func() { _ = closer(context.Background()) }()

	routes := router.Routes()
	assert.Contains(t, routes, pkgrouter.Route{Key: "/login", Method: http.MethodPost})
	assert.Contains(t, routes, pkgrouter.Route{Key: "/me", Method: http.MethodGet})
}

func TestNewPanicsWhenAuthHooksMissing(t *testing.T) {
	jwt, err := pkgauth.NewJWT("module-test-secret-long-enough-for-hmac", time.Hour)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = New(Dependency{Router: pkgrouter.NewRouter(pkgrouter.Options{}), JWT: jwt})
	})
}
