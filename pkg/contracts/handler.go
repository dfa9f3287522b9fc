package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a domain's routes; pkg/app registers every handler of a
// service on one router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
