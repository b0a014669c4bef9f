/*
Package redis provides Redis-backed adapters: a session store, a distributed
per-chat locker, and a roster/attendance gateway.

Keys are namespaced by a configurable prefix. User-provided parts (cell group
and person names) are path-escaped before being embedded in a key.

Gateway layout, for prefix "rollcall:":

	rollcall:cells                          SET  of cell groups
	rollcall:cell:{cell}:members            SET  of member names
	rollcall:member:{cell}:{name}           HASH roster entry
	rollcall:attendance:{cell}:{YYYY-MM-DD} HASH name -> status
*/
package redis
