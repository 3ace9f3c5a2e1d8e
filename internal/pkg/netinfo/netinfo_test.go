package netinfo

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cidr(t *testing.T, s string) *net.IPNet {
	t.Helper()
	ip, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	ipnet.IP = ip
	return ipnet
}

func TestMatchSubnet(t *testing.T) {
	addrs := []net.Addr{
		cidr(t, "127.0.0.1/8"),
		cidr(t, "10.0.0.5/24"),
		cidr(t, "192.168.1.23/24"),
	}

	got := matchSubnet(addrs, net.ParseIP("192.168.1.1"))
	assert.Equal(t, "192.168.1.23", got.String())

	assert.Nil(t, matchSubnet(addrs, net.ParseIP("172.16.0.1")))
	assert.Nil(t, matchSubnet(addrs, net.ParseIP("127.0.0.2")), "loopback is never a LAN address")
}

func TestWriteQR(t *testing.T) {
	var buf bytes.Buffer
	WriteQR(&buf, "http://192.168.1.23:3001")
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("\n")), 10)
}
