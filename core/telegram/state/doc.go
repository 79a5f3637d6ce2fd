// Package state keeps short-lived per-user conversation steps in memory.
package state
