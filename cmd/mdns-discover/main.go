// Command mdns-discover browses a DNS-SD service type on the local
// network and, once the timeout has elapsed, prints the PTR, SRV, A,
// AAAA and TXT records collected during it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	mdns "github.com/joshuafuller/beacon"
)

func main() {
	serviceType := flag.String("service", "_http._tcp.local.", "service type to browse, e.g. _http._tcp.local.")
	timeout := flag.Duration("timeout", 2*time.Second, "how long to collect responses")
	flag.Parse()

	if err := run(*serviceType, *timeout); err != nil {
		log.Fatal(err)
	}
}

func run(serviceType string, timeout time.Duration) error {
	q, err := mdns.New()
	if err != nil {
		return fmt.Errorf("create querier: %w", err)
	}
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := q.Query(ctx, serviceType, mdns.RecordTypePTR)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if len(resp.Records) == 0 {
		fmt.Fprintf(os.Stdout, "no instances of %s found within %s\n", serviceType, timeout)
		return nil
	}

	for _, r := range resp.Records {
		switch r.Type {
		case mdns.RecordTypePTR:
			fmt.Printf("instance: %s\n", r.AsPTR())
		case mdns.RecordTypeSRV:
			srv := r.AsSRV()
			if srv != nil {
				fmt.Printf("  %s -> %s:%d (priority %d, weight %d)\n", r.Name, srv.Target, srv.Port, srv.Priority, srv.Weight)
			}
		case mdns.RecordTypeA:
			fmt.Printf("  %s -> %s\n", r.Name, r.AsA())
		case mdns.RecordTypeAAAA:
			fmt.Printf("  %s -> %s\n", r.Name, r.AsAAAA())
		case mdns.RecordTypeTXT:
			for _, kv := range r.AsTXT() {
				fmt.Printf("  %s %s=%s\n", r.Name, kv.Key, kv.Value)
			}
		}
	}
	return nil
}
