/*
Package ports defines the driven ports (interfaces) of the GenUI runtime.

These interfaces decouple the orchestrator from the model backend, the tool
implementations and the storage used for coordination, so that each can be
swapped for a scripted or in-memory version in tests.

# Key Interfaces

  - Model: streams generations and answers point-in-time refine and fix requests.
  - ToolExecutor: runs a named tool with JSON arguments.
  - ToolCache: stores encoded tool results for a short time.
  - DistributedLocker: serializes work on a key across replicas.
  - EffectSink: displays cosmetic effects.
  - ConversationStore: keeps conversation snapshots.
  - Gallery: lists example trees for prompts and browsing.
*/
package ports
