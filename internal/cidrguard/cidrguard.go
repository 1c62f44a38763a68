// Package cidrguard implements a per-route CIDR admission check plus an
// optional global IP blacklist overlay.
package cidrguard

import "net"

// Check evaluates a route's CIDR restriction against a peer/forwarded-for
// pair:
//
//   - allowedCIDRs == nil (absent)        -> allow
//   - allowedCIDRs == [] (empty, present) -> deny
//   - otherwise both peer and (if present and not ignored) forwarded-for
//     must fall inside at least one CIDR.
func Check(allowedCIDRs []string, peerIP, forwardedFor string, ignoreProxiedIP bool) bool {
	if allowedCIDRs == nil {
		return true
	}
	if len(allowedCIDRs) == 0 {
		return false
	}

	nets := parseNets(allowedCIDRs)

	peer := net.ParseIP(peerIP)
	if peer == nil {
		return false
	}
	if !containsAny(nets, peer) {
		return false
	}

	if forwardedFor == "" || ignoreProxiedIP {
		return true
	}

	fwd := net.ParseIP(forwardedFor)
	if fwd == nil {
		return false
	}
	return containsAny(nets, fwd)
}

func parseNets(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			continue
		}
		nets = append(nets, n)
	}
	return nets
}

// containsAny is a genuine any-of across the CIDR list: the IP must fall
// in at least one of them, and every entry is checked.
func containsAny(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
