package middleware

import "github.com/valyala/fasthttp"

// HttpMiddleware wraps a request handler; middlewares are applied in reverse
// declaration order so the first declared executes first.
type HttpMiddleware interface {
	Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler
}
