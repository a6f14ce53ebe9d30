// Package advisor answers symptom queries end to end.
//
// A Service ranks the query text against the knowledge base and, when the
// request carries a location, looks up nearby practices of the matched
// condition's specialist kind. Lookup failures degrade to an empty list so a
// ranking is always returned for valid text.
//
// Batches submitted through AdviseAll are processed concurrently on a worker
// pool; responses keep the order of the requests.
package advisor
