// Package selector picks the endpoint that handles a request.
//
// The Selector queries the candidate index for endpoints compatible with the
// request's route values, resolves each candidate's constraints and hands the
// ordered candidates to SelectBestCandidate, which eliminates them stage by
// stage. Exactly one survivor is the winner; none is a no-match (nil, nil);
// more than one is reported as a *util.AmbiguousMatchError.
package selector
