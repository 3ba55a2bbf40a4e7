// Package websocket pushes run snapshots to browser clients.
//
// The Hub owns the client set and fans out JSON messages. Broadcasts are
// queued without blocking the caller; a client whose send buffer is full
// is disconnected.
package websocket
