// Package registry tracks the live logical subscriptions.
//
// Each entry maps a caller supplied subscription ID to the filter set it
// requested. IDs are unique among live entries: registering an ID that is
// already present is rejected rather than overwritten, so a forgotten cancel
// can never silently leak the previous entry.
//
// The registry answers one question for the purge decision: does any other
// live subscription use an equivalent filter set?
package registry
