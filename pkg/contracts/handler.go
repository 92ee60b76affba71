package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every service's HTTP handler set so the
// shared application bootstrap can mount it.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}

// Handlers mounts several handler sets on one router.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(router *httprouter.Router) {
	for _, h := range hs {
		h.RegisterRoutes(router)
	}
}
