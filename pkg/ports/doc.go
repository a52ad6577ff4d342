/*
Package ports defines the driven ports (interfaces) of the shindan engine.

These interfaces decouple the tree and session logic from the places trees are
authored and sessions are kept.

# Key Interfaces

  - TreeLoader: produces a compiled tree (shipped content, a file, a Loam vault, memory).
  - Watchable: optional loader capability signalling that the source changed.
  - SessionStore: persists server-hosted sessions (memory, Redis).
  - DistributedLocker: serializes access to one session across replicas.
*/
package ports
