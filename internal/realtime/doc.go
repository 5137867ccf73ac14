// Package realtime pushes mutation events to connected websocket clients and
// accepts mutations from them.
//
// Every frame is a JSON text message {"event": name, "data": payload} on a
// plain websocket at /ws. Event names follow the Socket.IO vocabulary, but the
// Engine.IO handshake and packet framing are not spoken, so socket.io-client
// cannot connect:
//
//	client -> server: authenticate, {resource}_created, {resource}_updated,
//	                  {resource}_deleted, request_data
//	server -> client: authenticated, authentication_error, {resource}_update,
//	                  schedules_data, announcements_data, tasks_data,
//	                  dashboard_data, error
//
// Sockets start anonymous. Mutations from a socket that has not authenticated
// are dropped without a reply.
package realtime
