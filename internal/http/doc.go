// Package http exposes the booking ledger as a JSON API.
//
// The router exposes the following endpoints:
//   - GET /health: liveness probe. Response: {"status":"ok"}.
//   - GET /ready: readiness probe that pings the snapshot store; 503 when it is unreachable.
//   - GET /rooms, POST /rooms: list rooms ({"rooms":[...]}) and add a room
//     ({"room_id"}).
//   - POST /rooms/:room/bookings: book a slot. Body: {"date","slot","class_name",
//     "prof_name"} where slot is a timeslot label or index. Responds with the
//     `bookingDTO` defined in booking_handler.go.
//   - GET /rooms/:room/bookings/:date/:slot: the booking occupying one slot, or 404.
//   - GET /rooms/:room/days/:date: open and booked slots of one day.
//   - GET /rooms/:room/week?format=json|html|jpeg|png|pdf|xlsx: the current week
//     of a room, tagged with an ETag so door displays can poll cheaply.
//
// Ledger failures map to status codes in responder.go; every error body
// carries a stable `error_code`.
package http
