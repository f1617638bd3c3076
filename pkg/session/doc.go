/*
Package session holds live conversations.

A Conversation carries the committed messages, the tree being streamed, the
loading flag, edit-mode selection and the token of the generation chain in
flight. Every write replaces values wholesale and publishes a snapshot to
subscribers, in order.

The Manager owns the live conversations, restores them from a
ports.ConversationStore and mirrors each published snapshot back into it,
serializing writes per conversation with local locks and an optional
distributed locker.
*/
package session
