/*
Package history implements independent undo/redo timelines keyed by slide.

Each slide owns a TimeState (past, present, future). The Store maps slide ids to
their TimeState and is never mutated in place: Reduce takes a Store and an Action
and returns a new Store, or the very same Store when the action is a no-op. History
wraps a Store with the imperative Set/Undo/Redo/Clear API used by editing sessions.

Timelines are lists, not trees: committing a new value after an undo discards the
redo branch.
*/
package history
