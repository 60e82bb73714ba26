// Package ws exposes the evaluation service over a WebSocket stream.
//
// Each client message is answered with exactly one server message carrying
// the same id. Messages are processed in order on the connection goroutine.
//
// Message Types (Client → Server):
//   - eval: {"type":"eval","id":"1","code":"1+1","timeout_ms":100}
//   - call: {"type":"call","id":"2","function":"f","args":[1,2]}
//   - ping: keep-alive
//
// Message Types (Server → Client):
//   - result: {"type":"result","id":"1","result":2}
//   - error: {"type":"error","id":"2","error":"...","kind":"timeout"}
//   - pong: reply to ping
//
// Example Usage:
//
//	handler := ws.NewHandler(svc, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
