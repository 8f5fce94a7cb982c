// Package socket multiplexes one persistent server channel into logical
// sub-protocols.
//
// [Dispatcher] owns the envelope codec: outbound messages are wrapped in
// {type, message} frames, inbound frames are routed to the handler
// registered for their type. [WSChannel] is the websocket transport behind
// it, redialing with a rate-limited loop and feeding the dispatcher open
// and message notifications.
//
// Handler registration replaces: at most one handler is live per message
// type, so re-registration during reconnect cannot double-apply side
// effects. Open handlers fan out in registration order.
package socket
