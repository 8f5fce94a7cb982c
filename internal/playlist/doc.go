// Package playlist maintains the scratchpad: the client's currently
// edited, not-yet-named playlist, held under the reserved id.
//
// Every mutation mirrors the full snapshot to the server (not a diff) and
// keeps a local serialized copy so the scratchpad survives restarts.
// Named-playlist operations are fire-and-forget; the server confirms them
// indirectly with a playlist update push, at which point the scratchpad
// reloads from the cache so it matches server-confirmed state.
package playlist
