// Package websocket provides the live request feed via WebSocket.
//
// Clients connect to /ws/requests and receive one JSON message per request
// the service finishes serving. The optional ?endpoint= query parameter
// restricts the feed to a single endpoint label such as "hello" or "health".
package websocket
