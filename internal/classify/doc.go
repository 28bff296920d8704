// Package classify decides which static hosting provider serves a hostname by
// matching its A and CNAME records against known provider fingerprints.
package classify
