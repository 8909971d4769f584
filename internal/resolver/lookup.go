package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// RecordType is the DNS record type a batch resolves: A or AAAA.
type RecordType uint16

const (
	TypeA    = RecordType(dns.TypeA)
	TypeAAAA = RecordType(dns.TypeAAAA)
)

func (t RecordType) String() string {
	if name, found := dns.TypeToString[uint16(t)]; found {
		return name
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// dnsLookuper queries explicitly configured servers over UDP with miekg/dns
// and falls back to the system resolver when no server is given. Each lookup
// opens and closes its own exchange; nothing is held across passes.
type dnsLookuper struct {
	client   *dns.Client
	resolver *net.Resolver
}

func newDNSLookuper(timeout time.Duration) *dnsLookuper {
	return &dnsLookuper{
		client:   &dns.Client{Net: "udp", Timeout: timeout},
		resolver: net.DefaultResolver,
	}
}

func (l *dnsLookuper) Lookup(ctx context.Context, host, server string, qtype RecordType) ([]string, error) {
	if server == "" {
		return l.lookupSystem(ctx, host, qtype)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), uint16(qtype))

	resp, _, err := l.client.ExchangeContext(ctx, msg, withDefaultPort(server))
	if err != nil {
		return nil, err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("server %s returned %s for %s", server, dns.RcodeToString[resp.Rcode], host)
	}

	var addrs []string
	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *dns.A:
			addrs = append(addrs, record.A.String())
		case *dns.AAAA:
			addrs = append(addrs, record.AAAA.String())
		}
	}
	return addrs, nil
}

func (l *dnsLookuper) lookupSystem(ctx context.Context, host string, qtype RecordType) ([]string, error) {
	network := "ip4"
	if qtype == TypeAAAA {
		network = "ip6"
	}

	ips, err := l.resolver.LookupIP(ctx, network, host)
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}
	return addrs, nil
}

// withDefaultPort appends ":53" unless the server address already carries a
// port. IPv6 server addresses get bracketed as needed.
func withDefaultPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, "53")
}
