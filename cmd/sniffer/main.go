// The sniffer watches Minecraft traffic on a network device and prints every
// frame it sees, named and decoded where the server knows the packet.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

const truncatePacketLimit = 256

var (
	device    = flag.String("d", "lo", "Device on which to listen for packets")
	port      = flag.Uint("p", 25565, "Port the server is listening on")
	truncate  = flag.Bool("t", false, "Only print the first 256 bytes of each payload")
	interpret = flag.Bool("i", true, "Print the decoded fields of packets the server declares")
)

func main() {
	flag.Parse()

	if getDeviceIP() == "" {
		exit("invalid device: %s", *device)
	}

	handle, err := pcap.OpenLive(*device, math.MaxInt32, false, pcap.BlockForever)
	if err != nil {
		exit("error opening handle: %v", err)
	}
	defer handle.Close()
	if err := handle.SetBPFFilter(fmt.Sprintf("tcp and port %d", *port)); err != nil {
		exit("error setting filter: %v", err)
	}

	w := bufio.NewWriter(os.Stdout)
	s := &sniffer{
		Writer:     w,
		ServerPort: uint16(*port),
		Interpret:  *interpret,
	}
	if *truncate {
		s.TruncateThreshold = truncatePacketLimit
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		tcp, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		if !ok || packet.NetworkLayer() == nil {
			continue
		}
		s.handleSegment(packet.NetworkLayer().NetworkFlow(), tcp)
		_ = w.Flush()
	}
}

func exit(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

func getDeviceIP() string {
	devs, _ := pcap.FindAllDevs()
	for _, dev := range devs {
		if dev.Name == *device {
			for _, address := range dev.Addresses {
				return address.IP.String()
			}
		}
	}
	return ""
}
