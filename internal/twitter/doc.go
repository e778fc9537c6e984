// Package twitter implements the search API v2 client: endpoint selection
// between recent and full-archive search, cursor pagination with a
// loop-guard, the dedicated counts endpoint, and user lookup.
package twitter
