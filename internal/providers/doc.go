// Package providers defines the MetadataProvider contract, the generic series
// matching algorithm every provider shares, and the priority-ordered Registry
// the resolver walks.
//
// Concrete sources live in subpackages and plug in through a Factory so this
// package never imports them.
package providers
