/*
Package session coordinates access to per-chat conversation sessions.

Turns for the same chat are serialised by a reference-counted in-process
mutex and, when configured, a distributed lock shared between replicas.
Persistence is delegated to a ports.SessionStore.
*/
package session
