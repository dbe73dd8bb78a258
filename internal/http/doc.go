// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the caller's own session token,
//     extracted from the Authorization header or session cookie. Returns
//     204 No Content and clears the cookie.
//   - DELETE /sessions/{token}: administrator revocation of an arbitrary
//     session token.
//   - GET /bookings, POST /bookings, GET /bookings/{id}, PATCH /bookings/{id},
//     DELETE /bookings/{id}: reservation endpoints exchanging the
//     `bookingDTO` payload defined in booking_handler.go. POST admits
//     anonymous callers so visitors can request a slot without an account;
//     conflicting requests come back as 409 listing the colliding bookings.
//   - POST /bookings/{id}/status: moves a booking through its lifecycle.
//     Body: {"action"} with accept, reject, or cancel.
//   - GET /agenda?date=YYYY-MM-DD&space_id=: the single-day view of every
//     booking intersecting the given calendar day.
//   - GET /spaces, GET /spaces/{id}: public space catalog browsing. POST
//     /spaces, PUT /spaces/{id}, DELETE /spaces/{id}: administrator catalog
//     management, all exchanging the `spaceDTO` payload in space_handler.go.
//   - GET /users, POST /users, PUT /users/{id}, DELETE /users/{id}:
//     administrator controlled account management exchanging the `userDTO`
//     payload defined in user_handler.go.
//   - GET /reports/summary?period=: administrator reporting with status
//     totals, the most booked space, and the occupancy rate.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
