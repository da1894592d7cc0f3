// Package aggregate partitions collections into groups and reduces each
// group.
//
// Results use flat-key addressing: every reduction is stored under
// "<group>.<field>" (FlatKey) instead of in a nested tree. Without a
// GroupBy key the whole collection forms the single group "_all".
package aggregate
