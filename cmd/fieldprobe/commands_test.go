package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"analyze", "diagnose", "unlock", "periods", "dump", "interact", "shell"}, names)

	for _, flag := range []string{"url", "file", "format", "copy", "radius"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestURLAndFileExclusive(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"analyze", "--url", "https://reports.example.com", "--file", "page.html"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestInteractNeedsSelector(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"interact"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))

	require.Error(t, root.Execute())
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
