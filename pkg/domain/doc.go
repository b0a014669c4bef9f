/*
Package domain contains the core domain models of the rollcall attendance bot.

It defines the conversation session, the fixed set of conversation steps, and the
roster and attendance entities the bot reads and writes. This package is kept pure
and free of I/O, following Hexagonal Architecture principles: storage and chat
transports live behind the interfaces in package ports.

# Key Entities

  - Session: the fixed-shape state of one chat's conversation (step, cell group, date, name sets).
  - Step: a position in the fixed conversation graph.
  - NameSet: an insertion-ordered set of names.
  - Record / Member: persisted attendance and roster entries.
  - Reply: what the host should send back (text plus an optional reply keyboard).
*/
package domain
