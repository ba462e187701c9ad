// Package resolve scores Vampire: The Masquerade dice.
//
// # Core Pool
//
// Standard and Hunger dice are scored together:
//   - Every die showing 6 or more is a success; a 10 counts as two.
//   - Two 10s form a critical pair. The pair is already inside the success
//     total through the doubling rule and is displayed as "+4".
//   - A critical is messy when a Hunger die shows one of the 10s.
//   - A roll with no successes and a Hunger die showing 1 is a bestial
//     failure.
//
// # Single Tests
//
// Rouse, Remorse and Frenzy pools ignore criticals. They pass when any die
// shows 6 or more; an empty pool is no test at all.
//
// Faces arrive from the geometry layer as 0–9 where 0 is a ten. Normalize
// is the only place that encoding is understood.
package resolve
