// Package meetup talks to the Meetup REST API.
//
// Fetcher issues rate-limited, cursor-paginated GET requests and exposes the
// result pages as a lazy sequence. On top of it, GroupFinder resolves the
// canonical Meetup group of each PyLadies chapter, MemberCollector pulls full
// member rosters, and NearbyFinder looks for Python user groups around a
// chapter using a keyword Classifier.
//
// All calls are sequential. Per-call failures are reported to the caller as
// errors (FetchError, ErrGroupNotFound, ErrAmbiguousGroup) and never abort a
// whole run on their own.
package meetup
