// Package viz computes read-only views over a graph and its overlays:
// cluster edge density, gap highlighting, trend sparklines, the visible
// subgraph and connectivity statistics.
//
// Every function is pure. Results are recomputed from the current state on
// demand and never written back into the store.
package viz
