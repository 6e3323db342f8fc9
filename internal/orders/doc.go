// Package orders implements the in-memory order cache.
//
// The cache is the single authority on active orders. Two call sites
// mutate it: the poll path (wholesale ReplaceAll) and the push path
// (targeted Upsert/Remove). Both emit change events after the mutation
// completes so consumers can react without re-reading everything.
package orders
