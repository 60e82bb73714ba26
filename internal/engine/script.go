package engine

import (
	"fmt"
	"os"
)

// Script is a named piece of guest source.
type Script struct {
	Name   string
	Source string
}

// ReadScripts loads script files, naming each script after its path.
func ReadScripts(paths ...string) ([]Script, error) {
	scripts := make([]Script, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		scripts = append(scripts, Script{Name: path, Source: string(src)})
	}
	return scripts, nil
}
