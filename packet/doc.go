// Package packet turns the host's fire-and-forget string broadcast into
// request/response round trips between add-ons.
//
// # Components
//
//   - Body: the plain key/value payload of an envelope, with typed helpers that
//     encode host references (blocks, block permutations, dates, entities) as
//     tagged records and resolve them back on the receiving side.
//   - Transport: sends request envelopes, correlates responses by channel id
//     and settles the caller's Future on a later scheduler tick, or rejects it
//     with a TimeoutError once the tick budget is spent. Inbound requests are
//     published on the transport's Signal; whatever response a listener
//     supplies is broadcast back on the inbound channel.
//   - Signal: the dispatch registry. Listeners run synchronously in
//     registration order, filtered by namespace, each isolated from the
//     errors and panics of the others.
//   - Future: the value-returning handle of an in-flight request. It is
//     settled only from inside a scheduler tick; goroutines may block on it
//     with Wait, tick-driven code chains continuations with Then or Map.
//
// # Concurrency
//
// The host drives everything from its tick loop on one logical thread. The
// types in this package are nevertheless safe for concurrent use: internal
// state is mutex guarded and no lock is held while calling out to listeners,
// continuations or the host.
package packet
