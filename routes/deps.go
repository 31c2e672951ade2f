package routes

import (
	"github.com/tandia00/immobilier-mali-app-sub000/bus"
	"github.com/tandia00/immobilier-mali-app-sub000/services"
)

// Deps carries the constructed services into the handlers. main wires it up
// once before registering routes.
type Deps struct {
	Bus           *bus.Bus
	Notifications *services.NotificationStore
	Payments      *services.PaymentService
	Unread        *services.UnreadCounter
}

var deps Deps

func Configure(d Deps) {
	deps = d
}
