// Package testutil contains helpers used across tests to reduce boilerplate
// when building an in-memory host and asserting on the forms shown to
// players. They are not intended for production usage.
package testutil
