/*
Package ports defines the driven ports (interfaces) of the rollcall bot.

These interfaces decouple the conversation core from external implementations,
allowing the state machine to work with various roster stores, session stores,
and lock providers.

# Key Interfaces

  - Gateway: read and write access to the roster and attendance records.
  - SessionStore: persists in-progress conversations keyed by chat.
  - DistributedLocker: serialises turns for the same chat across replicas.
*/
package ports
