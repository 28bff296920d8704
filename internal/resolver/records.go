package resolver

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/tbckr/staticscan/internal/apperr"
)

// newQuery builds a recursive query for host and qtype.
func newQuery(host string, qtype uint16) *dns.Msg {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true
	return m
}

// answers extracts the record values of qtype from a response.
// A non-success rcode or an answer without records of qtype is reported as
// apperr.ErrLookupFailed, mirroring how an NXDOMAIN or NODATA reply carries no
// usable evidence.
func answers(resp *dns.Msg, host string, qtype uint16) ([]string, error) {
	typeName := dns.TypeToString[qtype]
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: %s %s: %s", apperr.ErrLookupFailed, typeName, host, dns.RcodeToString[resp.Rcode])
	}
	var values []string
	for _, rr := range resp.Answer {
		switch v := rr.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				values = append(values, v.A.String())
			}
		case *dns.CNAME:
			if qtype == dns.TypeCNAME {
				values = append(values, v.Target)
			}
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s %s: no records", apperr.ErrLookupFailed, typeName, host)
	}
	return values, nil
}

// trimDot removes the trailing root label from a fully-qualified name.
func trimDot(name string) string {
	return strings.TrimSuffix(name, ".")
}
