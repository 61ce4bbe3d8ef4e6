// Package bridge is the server side of the add-on bridge protocol.
//
// A Bridge holds the properties one add-on exposes, keyed by object kind and
// property name. A Registry owns the bridges of a process and answers the
// verbs other add-ons send through a packet.Transport:
//
//	connect  identity check
//	get      read a property
//	set      write a property
//	has      probe for a property
//	call     invoke a function property
//	docs     show the add-on's documentation to a player
//
// Descriptors are tagged variants. A DataSlot carries a value and a writable
// flag; its current value lives in the target object's dynamic properties
// and falls back to the slot's value. An AccessorSlot carries getter and
// setter functions, which take precedence over any stored value.
//
// Every failure is answered as {error: true, message: "..."}. Requests for
// an add-on id no bridge is registered under get no answer at all, so the
// caller times out.
package bridge
