// Package memhost is an in-memory implementation of the host collaborators.
//
// It models just enough of a host application to run add-on bridges inside a
// single process: a World with dimensions, blocks, entities and players, a
// manually advanced tick Scheduler, and a Bus that routes broadcasts to
// subscribers by channel namespace. Delivery on the Bus is synchronous, so a
// request broadcast by one add-on is handled (and possibly answered) before
// Broadcast returns.
//
// Everything here is intended for tests, examples and local tooling.
package memhost
