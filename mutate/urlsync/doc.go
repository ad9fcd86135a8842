// Package urlsync round-trips drawer UI state through URL query parameters.
//
// Host applications that enable location sync keep the open/closed state and
// the targeted record of their edit drawers in the address bar, so the state
// survives a full page reload and can be shared as a link. The parameter
// names follow the shape
//
//	drawer-<resource>-<action>[open]
//	drawer-<resource>-<action>[id]
//
// Encoding and decoding tolerate unrelated query parameters.
package urlsync
