// Package uitree scans an on-screen node hierarchy for the structured-menu
// dialog and pushes computed input back into it.
//
// Every traversal acquires child handles from the host and releases each one
// it does not return to the caller before it returns.
package uitree
