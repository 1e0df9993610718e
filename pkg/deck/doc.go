/*
Package deck holds the document mutation protocol.

Every mutation is a pure function over one slide's node list: it deep-copies the list,
applies a targeted change and returns the new list together with a flag telling whether
anything changed. Callers commit to history only when the flag is set, so gestures that
resolve to nothing (sub-pixel drags, unchanged values, stale node ids) never produce
history entries.
*/
package deck
