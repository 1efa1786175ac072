package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// registrarFunc adapts a plain function to RouteRegistrar, the way handlers
// implement it.
type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) {
	f(rg)
}

func pingRegistrar() RouteRegistrar {
	return registrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/test/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
	})
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(pingRegistrar())

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	r.Register(pingRegistrar())
	r.Setup()

	// Test the route was registered
	req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterSetupVersionPrefix(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	r.Register(pingRegistrar())
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v2/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// The default prefix must not exist
	req = httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterUse(t *testing.T) {
	t.Run("applies middleware to API routes", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)

		r.Use(func(c *gin.Context) {
			c.Header("X-API-Middleware", "applied")
			c.Next()
		})

		r.Register(pingRegistrar())
		r.Setup()

		req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "applied", w.Header().Get("X-API-Middleware"))
	})

	t.Run("does not apply middleware to engine-level routes", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/health", func(c *gin.Context) {
			c.String(http.StatusOK, "healthy")
		})

		r := NewRouter(engine)
		r.Use(func(c *gin.Context) {
			c.Header("X-API-Middleware", "applied")
			c.Next()
		})

		r.Register(pingRegistrar())
		r.Setup()

		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-API-Middleware"))
	})

	t.Run("aborting middleware blocks API routes", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)

		r.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		})

		r.Register(pingRegistrar())
		r.Setup()

		req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMultipleRegistrars(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	batches := registrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/batches", func(c *gin.Context) {
			c.String(http.StatusOK, "batches")
		})
	})
	returns := registrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/returns", func(c *gin.Context) {
			c.String(http.StatusOK, "returns")
		})
	})

	r.Register(batches).Register(returns)
	r.Setup()

	// Test batches route
	req1 := httptest.NewRequest("GET", "/api/v1/batches", nil)
	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "batches", w1.Body.String())

	// Test returns route
	req2 := httptest.NewRequest("GET", "/api/v1/returns", nil)
	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "returns", w2.Body.String())
}
