/*
Package domain contains the core models of the generative UI client.

It defines the component catalog, the typed UI node union, the action and
tool-call protocols and the conversation snapshot exchanged with hosts. The
package is kept pure and free of I/O, following Hexagonal Architecture
principles; parsing, validation and rendering live in their own packages.

# Key Entities

  - Node: one component instance. On the wire a node is an object with exactly
    one key, the component type, whose value is the property bag.
  - Action: a side effect emitted by an interactive component.
  - ToolCall: the alternate root document {"tool_call": {...}} that requests an
    external tool instead of describing UI.
  - Message: one conversational turn, owning at most one UI tree.
  - Snapshot: the observable state of a conversation, diffed for streaming hosts.
*/
package domain
