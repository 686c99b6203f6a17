package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/getmentor/getmentor-escrow/internal/middleware"
	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	_ = logger.Initialize(logger.Config{Level: "error", Environment: "test"})
}

var (
	ownerAddr    = models.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	studentAddr  = models.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	mentorAddr   = models.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	registryAddr = models.MustParseAddress("0xe7f1725e7734ce288f8367e1bb143e90bb3f0512")
	ledgerAddr   = models.MustParseAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
)

// newRouter returns a router that authenticates every request as caller.
// An empty caller leaves the request unauthenticated.
func newRouter(caller models.Address) *gin.Engine {
	router := gin.New()
	if caller != "" {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.WalletSessionContextKey, &models.WalletSession{Address: caller})
			c.Next()
		})
	}
	return router
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}
