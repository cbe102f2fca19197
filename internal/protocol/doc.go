// Package protocol implements the pet door's newline-delimited
// JSON-over-TCP control protocol.
//
// The server accepts exactly one client at a time; a second concurrent
// connection is closed without a response. Requests carry a "cmd" or
// "config" field naming the command plus a "msgId"; responses echo the
// name under "CMD" and the id under "msgID" with a string "success"
// flag. All other boolean wire values are the strings "0"/"1". These
// asymmetries are firmware quirks reproduced exactly for
// interoperability.
//
// Unsolicited notifications (door status changes, sensor events, low
// battery) are pushed on the same connection. Each connection has a
// single writer goroutine fed by one queue, and handlers enqueue their
// response before posting door-motion side effects to the engine, so a
// notification caused by a command never precedes that command's
// response.
package protocol
