// Package engine executes campaign commands as single units of work.
//
// Each command is validated, decided against the stored campaign, and its
// events are appended, their transfers executed, and the folded state saved in
// one storage transaction. Commands for the same campaign are serialized so
// capacity and duplicate checks always see the latest roster.
package engine
