// Package resolve resolves a client's configured server endpoint to a
// concrete address. Resolution is synchronous by design — spec §4.4's
// Resolving state runs it inline on the event-loop thread rather than as
// an async operation, the one documented exception to "handlers must not
// block" (§5). It is re-run on every connect() call since DNS can change
// between attempts (roaming laptops, dynamic DNS).
package resolve

import (
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"inputshare/internal/stream"
)

// Resolver resolves a hostname to an IPv4 address using a direct DNS query
// rather than relying solely on the OS stub resolver, grounded on
// billy-rubin-Socks-proxy's internal/application/proxy_service.go DNS
// query/response handling.
type Resolver struct {
	// Server is the recursive resolver to query, host:port. Defaults to
	// "8.8.8.8:53".
	Server  string
	Timeout time.Duration
}

// NewResolver returns a Resolver with sensible defaults.
func NewResolver() *Resolver {
	return &Resolver{Server: "8.8.8.8:53", Timeout: 5 * time.Second}
}

// Resolve re-resolves endpoint if it is a network endpoint carrying a
// hostname rather than a literal IP, and returns an endpoint with Host set
// to a concrete address. Non-network (opaque) endpoints pass through
// unchanged. If endpoint.Host is already a literal IP address, no DNS
// query is issued.
func (r *Resolver) Resolve(endpoint stream.Endpoint) (stream.Endpoint, error) {
	out := endpoint.Clone()
	if !out.Network {
		return out, nil
	}
	if ip := net.ParseIP(out.Host); ip != nil {
		return out, nil
	}

	ip, err := r.lookupA(out.Host)
	if err != nil {
		return stream.Endpoint{}, fmt.Errorf("resolve %q: %w", out.Host, err)
	}
	out.Host = ip
	return out, nil
}

func (r *Resolver) lookupA(host string) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: r.Timeout}
	resp, _, err := client.Exchange(msg, r.Server)
	if err != nil {
		return "", err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("dns rcode %d", resp.Rcode)
	}

	for _, ans := range resp.Answer {
		if a, ok := ans.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", fmt.Errorf("no A records for %q", host)
}
