// Package stash keeps the local library cache synchronized with the
// server.
//
// [Engine] drives a periodic pull cycle: each cycle walks the fixed table
// list strictly one table at a time, sending a sync request carrying that
// table's watermark cursor and suspending until the response arrives.
// Returned records are reconciled into the cache (tombstones delete, the
// rest upsert) and the cursor advances only when the response succeeded.
// An error response aborts the cycle and schedules the next one instead of
// retrying inline, so a broken server cannot cause a tight loop.
//
// At most one cycle and one reschedule timer exist at any time, and
// responses that arrive after Stop are discarded rather than applied.
package stash
