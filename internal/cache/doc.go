// Package cache persists module descriptors between runs.
//
// Describing a loadable unit means executing foreign code, which is expensive
// and not always safe. The cache amortizes that cost: one blob per scanned
// directory stores the descriptors keyed by relative path, mtime and size, so
// an unchanged file never reaches the loader on later scans. The fingerprint
// is cheap file metadata rather than a content hash; a rewrite that preserves
// both mtime and size goes undetected, an accepted tradeoff.
//
// Corruption is never an error. A blob that is missing, unreadable, from
// another format version, or simply garbage loads as empty and forces full
// rediscovery.
package cache
