// Package client is the consuming side of the add-on bridge protocol.
//
// A Connection bundles a target add-on id and issues bridge requests through
// any Sender, normally a *packet.Transport. Every operation returns a
// packet.Future that settles on a host tick:
//
//	conn := client.New(transport, "com.example.mypack")
//	conn.Get(world, "name").Then(func(v any, err error) { ... })
//
// Application failures reported by the bridge surface as *packet.RemoteError,
// missing answers as *packet.TimeoutError.
package client
