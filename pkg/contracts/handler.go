package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// HandlerGroup fans a single registration call out to several domain handlers,
// letting the application wire them behind one middleware stack.
type HandlerGroup []Handler

func (g HandlerGroup) RegisterRoutes(router *httprouter.Router) {
	for _, h := range g {
		h.RegisterRoutes(router)
	}
}
