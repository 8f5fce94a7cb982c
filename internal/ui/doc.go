// Package ui renders terminal output for the client: a lipgloss style
// palette used by the CLI commands and a bubbletea browser over the cached
// library and the scratchpad. It is a read-only convenience surface; all
// state lives behind the sync and playlist layers.
package ui
