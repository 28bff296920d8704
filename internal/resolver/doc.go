// Package resolver provides the DNS backends the classifier queries: the
// platform resolver (optionally tunnelled through SOCKS5), a plain wire-format
// DNS client, and a DNS-over-HTTPS client.
package resolver
