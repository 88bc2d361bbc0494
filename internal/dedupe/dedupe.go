package dedupe

// Package dedupe provides shared singleflight groups used to deduplicate
// concurrent storage reads. Using a centralized singleflight.Group ensures
// that only one snapshot load runs for a given battle while other callers
// wait for the result.

import "golang.org/x/sync/singleflight"

// StateGroup deduplicates snapshot loads for battles that are no longer
// resident in memory, keyed by battle ID.
var StateGroup singleflight.Group

// HistoryGroup deduplicates turn-history listings keyed by battle ID.
var HistoryGroup singleflight.Group
