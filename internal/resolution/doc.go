// Package resolution turns an endpoint's declared constraint metadata into
// realized constraints grouped by stage, and memoizes the result per
// endpoint collection version.
//
// Resolution runs an ordered chain of providers over one slot per metadata
// item. Providers run in ascending Order; each may populate empty slots and
// sees what earlier providers wrote. Writing a slot that is already
// populated is a contract violation and aborts resolution with a
// util.ProviderContractError. The DefaultProvider (Order -1000) fills slots
// from direct constraints and realizes factories.
//
// Results are cached only when every populated slot is reusable. The cache
// is a generation keyed on the collection version; a newer version swaps in
// a fresh generation atomically, and concurrent resolutions of the same
// endpoint may both compute and store an identical result.
package resolution
