// Package components renders the dashboard's drawing primitives: the
// braille time graph, sparklines, and bordered boxes. Everything returns
// plain strings with lipgloss styling so callers can compose frames with
// lipgloss.JoinVertical.
package components
