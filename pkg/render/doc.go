// Package render resolves UI trees into Element trees.
//
// A Renderer walks a raw JSON tree, validates each node against the
// component catalog, looks the component up in an immutable Registry and
// lets the component build its Element. Components never recurse by hand:
// they call Scope helpers, which compute every child path in one place:
//
//	node path    root.container.children.0
//	props path   root.container.children.0.text
//	child path   <props path>.children.<i>
//	accordion    <props path>.items.<i>.content.<j>
//	table cell   <props path>.rows.<i>.<j>
//
// Every node renders inside its own failure boundary. A component error or
// panic is reported to the FailureFunc with the raw node and its path and
// the node's slot shows a repairing placeholder; siblings and ancestors are
// unaffected. Nodes that fail validation show a diagnostic placeholder
// naming the unmatched key instead of disappearing.
package render
