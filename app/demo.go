package app

import (
	"bytes"
	_ "embed"

	"rtthread/internal/scenario"
)

//go:embed demo.yaml
var demoYAML []byte

// Demo returns the built-in scenario run when no file is given.
func Demo() *scenario.File {
	f, err := scenario.Load(bytes.NewReader(demoYAML))
	if err != nil {
		panic("app: demo scenario: " + err.Error())
	}
	return f
}
