package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/genui/pkg/partialjson"
)

// readInput returns the contents of the file named by args[0], or stdin
// when no file or "-" is given.
func readInput(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

// readTree decodes a component tree. Truncated documents are repaired the
// way streamed output is.
func readTree(args []string, stdin io.Reader) (any, error) {
	data, err := readInput(args, stdin)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err == nil {
		return tree, nil
	}
	tree, ok := partialjson.Parse(string(data))
	if !ok {
		return nil, fmt.Errorf("input is not a JSON document")
	}
	return tree, nil
}
