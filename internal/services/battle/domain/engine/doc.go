// Package engine drives a battle to completion.
//
// A Battle owns one State and one execution stack. Run pops steps until the
// battle ends or a participant decision is outstanding; Snapshot captures
// exactly that point so Restore can continue it in another process with the
// same dice and the same effects.
package engine
