// Package resolver expands a batch of hostnames into the union of addresses
// discoverable by repeated querying. DNS round-robin pools return different
// subsets of their members per lookup, and any address missing from the
// published lists is an address that slips past the firewall, so the engine
// trades lookup cost for completeness: several passes over the whole batch,
// rotating the preferred server between passes, with per-server retry and
// fallback.
package resolver

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"dohlists/internal/domain"
)

const (
	defaultPasses          = 5
	defaultWorkers         = 20
	defaultAttemptTimeout  = 3 * time.Second
	defaultSequenceTimeout = 10 * time.Second
	defaultPassDelay       = 1 * time.Second

	// Attempts per server before falling back to the next one.
	attemptsPerServer = 2
)

// Lookuper performs one DNS lookup against one server. An empty server means
// the system resolver. Implementations must honor ctx cancellation.
type Lookuper interface {
	Lookup(ctx context.Context, host, server string, qtype RecordType) ([]string, error)
}

type Config struct {
	// Servers to query, in preference order. Empty means system resolver only.
	Servers []string

	Passes          int
	Workers         int
	AttemptTimeout  time.Duration
	SequenceTimeout time.Duration

	// PassDelay spaces the passes out in time so round-robin rotation and TTL
	// expiry have a chance to surface new pool members between them. Zero
	// selects the default; a negative value disables the delay.
	PassDelay time.Duration

	// Lookuper overrides the default DNS-backed implementation. Used by tests.
	Lookuper Lookuper
}

type Engine struct {
	servers         []string
	passes          int
	workers         int
	attemptTimeout  time.Duration
	sequenceTimeout time.Duration
	passDelay       time.Duration
	lookuper        Lookuper
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		servers:         cfg.Servers,
		passes:          cfg.Passes,
		workers:         cfg.Workers,
		attemptTimeout:  cfg.AttemptTimeout,
		sequenceTimeout: cfg.SequenceTimeout,
		passDelay:       cfg.PassDelay,
		lookuper:        cfg.Lookuper,
	}
	if e.passes <= 0 {
		e.passes = defaultPasses
	}
	if e.workers <= 0 {
		e.workers = defaultWorkers
	}
	if e.attemptTimeout <= 0 {
		e.attemptTimeout = defaultAttemptTimeout
	}
	if e.sequenceTimeout <= 0 {
		e.sequenceTimeout = defaultSequenceTimeout
	}
	if e.passDelay == 0 {
		e.passDelay = defaultPassDelay
	} else if e.passDelay < 0 {
		e.passDelay = 0
	}
	if e.lookuper == nil {
		e.lookuper = newDNSLookuper(e.attemptTimeout)
	}
	return e
}

// Resolve returns the deduplicated, numerically sorted union of every address
// observed for the batch across all passes and servers. Hostnames that never
// answer simply contribute nothing; Resolve itself cannot fail.
func (e *Engine) Resolve(ctx context.Context, hosts []string, qtype RecordType) []string {
	unique := domain.SortedUnique(hosts)
	if len(unique) == 0 {
		return nil
	}

	union := make(map[string]struct{})
	for pass := 0; pass < e.passes; pass++ {
		if pass > 0 && e.passDelay > 0 {
			select {
			case <-ctx.Done():
				return domain.SortedUnique(setToSlice(union))
			case <-time.After(e.passDelay):
			}
		}

		before := len(union)
		e.runPass(ctx, unique, pass, qtype, union)
		log.Debug("resolution pass finished",
			"pass", pass+1, "type", qtype.String(), "hosts", len(unique), "new_addrs", len(union)-before)
	}

	return domain.SortedUnique(setToSlice(union))
}

// runPass resolves every hostname once, with bounded concurrency. Workers
// write into a buffered channel and the union is accumulated here after all
// lookups finish, so no shared state is mutated concurrently.
func (e *Engine) runPass(ctx context.Context, hosts []string, pass int, qtype RecordType, union map[string]struct{}) {
	results := make(chan []string, len(hosts))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, host := range hosts {
		host := host
		g.Go(func() error {
			results <- e.resolveHost(ctx, host, pass, qtype)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for addrs := range results {
		for _, addr := range addrs {
			union[addr] = struct{}{}
		}
	}
}

// resolveHost walks the attempt plan for one hostname in one pass until a
// server answers. Errors and timeouts never escape: an exhausted plan yields
// an empty contribution.
func (e *Engine) resolveHost(ctx context.Context, host string, pass int, qtype RecordType) []string {
	seqCtx, cancel := context.WithTimeout(ctx, e.sequenceTimeout)
	defer cancel()

	for _, at := range attemptPlan(e.servers, pass) {
		if seqCtx.Err() != nil {
			break
		}

		attemptCtx, cancelAttempt := context.WithTimeout(seqCtx, e.attemptTimeout)
		addrs, err := e.lookuper.Lookup(attemptCtx, host, at.server, qtype)
		cancelAttempt()

		if err == nil {
			return addrs
		}
		log.Debug("lookup attempt failed",
			"host", host, "server", serverLabel(at.server), "try", at.try+1, "err", err)
	}

	return nil
}

// attempt identifies one step of a lookup's retry/fallback sequence.
type attempt struct {
	server string
	try    int
}

// attemptPlan is the ordered sequence of (server, try) steps for one lookup:
// the pass-rotated primary first, then the remaining servers in configured
// order, each tried attemptsPerServer times. An empty server list degrades to
// the system resolver (server ""). The plan is pure so the retry policy can
// be tested without any network.
func attemptPlan(servers []string, pass int) []attempt {
	if len(servers) == 0 {
		servers = []string{""}
	}

	primary := servers[pass%len(servers)]
	order := make([]string, 0, len(servers))
	order = append(order, primary)
	for _, server := range servers {
		if server != primary {
			order = append(order, server)
		}
	}

	plan := make([]attempt, 0, len(order)*attemptsPerServer)
	for _, server := range order {
		for try := 0; try < attemptsPerServer; try++ {
			plan = append(plan, attempt{server: server, try: try})
		}
	}
	return plan
}

func serverLabel(server string) string {
	if server == "" {
		return "system"
	}
	return server
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	return out
}
