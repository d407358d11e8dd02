package middleware

import (
	midsec "LinkIM/middleware/security"

	"github.com/gin-gonic/gin"
)

type RouteOpt struct {
	IsAuth  bool
	IsAdmin bool
}

var authOpts midsec.Options

// Configure installs the token options the auth middleware verifies with.
// Call once from main before registering routes.
func Configure(opts midsec.Options) { authOpts = opts }

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	register(r.POST, path, handler, opt)
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	register(r.GET, path, handler, opt)
}

func register(method func(string, ...gin.HandlerFunc) gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if !opt.IsAuth && !opt.IsAdmin {
		method(path, handler)
		return
	}
	opts := authOpts
	opts.RequireAdmin = opt.IsAdmin
	method(path, midsec.Middleware(opts), handler)
}
