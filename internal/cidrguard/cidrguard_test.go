package cidrguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckNilMeansUnrestricted(t *testing.T) {
	assert.True(t, Check(nil, "203.0.113.5", "", false))
}

func TestCheckEmptyMeansDenyAll(t *testing.T) {
	assert.False(t, Check([]string{}, "203.0.113.5", "", false))
}

func TestCheckPeerMustBeInCIDR(t *testing.T) {
	cidrs := []string{"10.0.0.0/8"}
	assert.True(t, Check(cidrs, "10.1.2.3", "", false))
	assert.False(t, Check(cidrs, "192.168.1.1", "", false))
}

func TestCheckUnparsablePeerDenied(t *testing.T) {
	assert.False(t, Check([]string{"10.0.0.0/8"}, "not-an-ip", "", false))
}

func TestCheckForwardedForMustAlsoMatchUnlessIgnored(t *testing.T) {
	cidrs := []string{"10.0.0.0/8"}

	assert.True(t, Check(cidrs, "10.1.2.3", "10.9.9.9", false), "both peer and forwarded-for fall in range")
	assert.False(t, Check(cidrs, "10.1.2.3", "192.168.1.1", false), "forwarded-for outside range is rejected")
	assert.True(t, Check(cidrs, "10.1.2.3", "192.168.1.1", true), "ignoreProxiedIP skips the forwarded-for check")
}

func TestCheckAnyOfMultipleCIDRs(t *testing.T) {
	cidrs := []string{"10.0.0.0/8", "192.168.0.0/16"}
	assert.True(t, Check(cidrs, "192.168.5.5", "", false))
	assert.True(t, Check(cidrs, "10.5.5.5", "", false))
	assert.False(t, Check(cidrs, "172.16.0.1", "", false))
}

func TestCheckInvalidCIDREntriesAreSkipped(t *testing.T) {
	cidrs := []string{"not-a-cidr", "10.0.0.0/8"}
	assert.True(t, Check(cidrs, "10.1.1.1", "", false))
}

func TestCheckIPv6(t *testing.T) {
	cidrs := []string{"2001:db8::/32"}
	assert.True(t, Check(cidrs, "2001:db8::1", "", false))
	assert.False(t, Check(cidrs, "2001:db9::1", "", false))
}
