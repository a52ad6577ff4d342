/*
Package domain contains the core models of the shindan diagnostic engine.

It defines the node variants of the decision graph, the usage errors raised by
traversal, and the lifecycle events emitted to observers. The package is pure:
no I/O, no persistence, no third-party dependencies.

# Key Entities

  - Node: a Question (prompt + ordered Answers) or a Result (terminal recommendation).
  - Answer: a labeled edge to another node, referenced by ID.
  - UsageError: caller misuse of traversal (terminal node, bad answer index, unknown node).
  - LifecycleHooks: optional callbacks fired when a caller advances through the graph.
*/
package domain
