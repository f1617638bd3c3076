package domain

import "errors"

// ErrConversationNotFound is returned when a conversation ID cannot be found in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrNoUITree is returned when an operation needs a tree but no message owns one.
var ErrNoUITree = errors.New("no ui tree")

// ErrNothingSelected is returned by refinement when edit mode has no selection.
var ErrNothingSelected = errors.New("nothing selected")

// ErrInvalidNode is returned when a node fails catalog validation.
var ErrInvalidNode = errors.New("invalid ui node")

// ErrToolChainTooDeep stops a generation whose tool calls keep recursing.
var ErrToolChainTooDeep = errors.New("tool chain too deep")

// ErrRepeatedToolCall stops a generation that requests a call it already made.
var ErrRepeatedToolCall = errors.New("repeated tool call")

// ErrStaleGeneration marks results of a generation that has been superseded.
var ErrStaleGeneration = errors.New("stale generation")
