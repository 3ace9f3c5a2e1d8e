package netinfo

import (
	"fmt"
	"io"
	"log"
	"net"

	"github.com/jackpal/gateway"
	"github.com/mdp/qrterminal/v3"
)

// LocalIP returns the IPv4 address of the interface that reaches the
// default gateway, which is the address other LAN machines should use.
func LocalIP() (string, error) {
	gwIP, err := gateway.DiscoverGateway()
	if err != nil {
		return "", fmt.Errorf("failed to discover gateway: %w", err)
	}

	interfaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to retrieve network interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			log.Printf("netinfo: skipping interface %s: %v", iface.Name, err)
			continue
		}
		if ip := matchSubnet(addrs, gwIP); ip != nil {
			return ip.String(), nil
		}
	}

	return "", fmt.Errorf("no local IPv4 address in the subnet of gateway %s", gwIP)
}

// matchSubnet picks the global unicast IPv4 address whose network contains gw.
func matchSubnet(addrs []net.Addr, gw net.IP) net.IP {
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ipv4 := ipnet.IP.To4()
		if ipv4 == nil || !ipv4.IsGlobalUnicast() || ipv4.IsLoopback() {
			continue
		}
		if ipnet.Contains(gw) {
			return ipv4
		}
	}
	return nil
}

// PrintBanner writes the startup banner with local and LAN URLs. With qr set
// the LAN URL is also drawn as a QR code for phones.
func PrintBanner(w io.Writer, port int, qr bool) {
	local := fmt.Sprintf("http://localhost:%d", port)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "File Sharing Server Started!")
	fmt.Fprintln(w, "================================")
	fmt.Fprintf(w, "Local:   %s\n", local)

	ip, err := LocalIP()
	if err != nil {
		log.Printf("netinfo: LAN address unavailable: %v", err)
		fmt.Fprintln(w, "================================")
		return
	}
	lan := fmt.Sprintf("http://%s:%d", ip, port)
	fmt.Fprintf(w, "Network: %s\n", lan)
	fmt.Fprintln(w, "================================")

	if qr {
		WriteQR(w, lan)
	}
}

// WriteQR draws url as a half-block QR code.
func WriteQR(w io.Writer, url string) {
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
}
