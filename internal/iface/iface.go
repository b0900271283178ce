// Package iface resolves network interfaces for RFC 6762 §15
// interface-specific addressing: given the interface a query arrived
// on, find the address that is valid to answer with on that same
// interface.
package iface

import (
	"fmt"
	"net"

	"github.com/joshuafuller/beacon/internal/errors"
)

// IPv4ForInterface returns the first IPv4 address assigned to the
// interface at ifIndex.
//
// RFC 6762 §15: responses MUST include addresses valid on the
// receiving interface, and MUST NOT include addresses from any other
// interface.
func IPv4ForInterface(ifIndex int) (net.IP, error) {
	return addressForInterface(ifIndex, func(ip net.IP) net.IP { return ip.To4() })
}

// IPv6ForInterface returns the first non-link-local-only IPv6 address
// assigned to the interface at ifIndex. Link-local addresses
// (fe80::/10) are skipped since they are rarely what a caller wants to
// advertise, but are used if nothing else is available.
func IPv6ForInterface(ifIndex int) (net.IP, error) {
	iface, err := net.InterfaceByIndex(ifIndex)
	if err != nil {
		return nil, &errors.NetworkError{Operation: "lookup interface", Err: err, Details: fmt.Sprintf("interface index %d not found", ifIndex)}
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, &errors.NetworkError{Operation: "get interface addresses", Err: err, Details: fmt.Sprintf("failed to get addresses for %s", iface.Name)}
	}

	var linkLocal net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP
		if ip.To4() != nil || ip.To16() == nil {
			continue
		}
		if ip.IsLinkLocalUnicast() {
			if linkLocal == nil {
				linkLocal = ip
			}
			continue
		}
		return ip, nil
	}
	if linkLocal != nil {
		return linkLocal, nil
	}
	return nil, &errors.ValidationError{Field: "interface", Value: iface.Name, Message: "no IPv6 address found on interface"}
}

func addressForInterface(ifIndex int, filter func(net.IP) net.IP) (net.IP, error) {
	iface, err := net.InterfaceByIndex(ifIndex)
	if err != nil {
		return nil, &errors.NetworkError{Operation: "lookup interface", Err: err, Details: fmt.Sprintf("interface index %d not found", ifIndex)}
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil, &errors.NetworkError{Operation: "get interface addresses", Err: err, Details: fmt.Sprintf("failed to get addresses for %s", iface.Name)}
	}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip := filter(ipnet.IP); ip != nil {
			return ip, nil
		}
	}
	return nil, &errors.ValidationError{Field: "interface", Value: iface.Name, Message: "no matching address found on interface"}
}

// MulticastCapable lists the up, multicast-capable network interfaces
// on this host, in the order net.Interfaces() reports them.
func MulticastCapable() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, &errors.NetworkError{Operation: "enumerate interfaces", Err: err}
	}
	var out []net.Interface
	for _, ifi := range all {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		out = append(out, ifi)
	}
	return out, nil
}
