package controller

import "github.com/fasthttp/router"

// HttpController registers its own routes on the shared router.
type HttpController interface {
	AddRoute(router *router.Router)
}
