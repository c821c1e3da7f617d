// Package metadata defines the normalized series and book records that
// providers produce and the pure transforms applied to them.
//
// Records carry optional fields: an empty string, a nil pointer, or an empty
// slice means "absent". Two transforms operate on that convention:
//
//   - the field mask (ApplySeriesMask, ApplyBookMask) nulls every field whose
//     per-provider flag is disabled;
//   - the merger (MergeSeries, MergeBooks) fills gaps in a higher-priority
//     record from a lower-priority one without overwriting present values.
//
// Both are synchronous and allocation-light so the resolver can run them
// inline between provider calls.
package metadata
