// Command gen-gallery writes the builtin few-shot examples as a loam
// gallery directory, the starting point for a custom gallery.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/genui/pkg/adapters/loam"
	"github.com/aretw0/genui/pkg/adapters/openai"
)

func main() {
	targetDir := "examples/gallery-builtin"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	examples := openai.BuiltinExamples()
	fmt.Printf("Generating gallery in: %s\n", targetDir)
	if err := loam.Write(context.Background(), targetDir, examples); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Done. %d examples written.\n", len(examples))
}
