// Command bench floods a running sysrecv with syslog traffic and reports the
// send rate. The target ports come from the same config sysrecv reads.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"sync/atomic"
	"sysrecv/utils"
	"time"

	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath string
	host       string
	protocol   string
	format     string
	total      int
	workers    int
	batchSize  int
	generator  generator
}

type result struct {
	sent   atomic.Int64
	failed atomic.Int64
}

func main() {
	opts := options{}
	flag.StringVar(&opts.configPath, "config", "", "sysrecv config file used to find the target ports")
	flag.StringVar(&opts.host, "host", "127.0.0.1", "Target host")
	flag.StringVar(&opts.protocol, "protocol", "udp", "Transport (udp or tcp)")
	flag.StringVar(&opts.format, "format", "mixed", "Message format (rfc5424, rfc3164, raw or mixed)")
	flag.IntVar(&opts.total, "total", 100000, "Messages to send")
	flag.IntVar(&opts.workers, "workers", 8, "Concurrent senders")
	flag.IntVar(&opts.batchSize, "batch-size", 1000, "Messages per TCP connection")
	flag.StringVar(&opts.generator.appName, "app", "sysrecv-bench", "APP-NAME / TAG of generated messages")
	flag.IntVar(&opts.generator.priority, "priority", 14, "PRI of generated messages")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("bench: %v", err)
	}
}

func run(opts options) error {
	cfg, err := utils.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	var port string
	switch opts.protocol {
	case "udp":
		port = cfg.UDPPort
	case "tcp":
		port = cfg.TCPPort
	default:
		return fmt.Errorf("unknown protocol %q", opts.protocol)
	}
	addr := net.JoinHostPort(opts.host, port)

	if opts.generator.hostname, err = os.Hostname(); err != nil {
		opts.generator.hostname = "sysrecv-bench"
	}
	if opts.generator.pick, err = formatPicker(opts.format); err != nil {
		return err
	}
	opts.workers = max(opts.workers, 1)
	opts.batchSize = max(opts.batchSize, 1)

	log.Printf("Sending %d %s messages to %s over %s with %d workers",
		opts.total, opts.format, addr, opts.protocol, opts.workers)

	var res result
	var g errgroup.Group
	start := time.Now()

	for w := 0; w < opts.workers; w++ {
		// Worker w sends messages w, w+workers, w+2*workers...
		var seqs []int
		for i := w; i < opts.total; i += opts.workers {
			seqs = append(seqs, i)
		}
		g.Go(func() error {
			if opts.protocol == "tcp" {
				sendTCP(addr, opts, seqs, &res)
			} else {
				sendUDP(addr, opts, seqs, &res)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	sent := res.sent.Load()
	log.Printf("Sent %d messages (%d failed) in %s, %.0f msg/s",
		sent, res.failed.Load(), elapsed.Round(time.Millisecond), float64(sent)/elapsed.Seconds())
	return nil
}

// sendUDP writes one message per datagram.
func sendUDP(addr string, opts options, seqs []int, res *result) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		res.failed.Add(int64(len(seqs)))
		log.Printf("UDP dial failed: %v", err)
		return
	}
	defer conn.Close()

	for _, seq := range seqs {
		if _, err := conn.Write([]byte(opts.generator.line(seq))); err != nil {
			res.failed.Add(1)
			continue
		}
		res.sent.Add(1)
	}
}

// sendTCP writes newline-framed batches, one connection per batch.
func sendTCP(addr string, opts options, seqs []int, res *result) {
	for len(seqs) > 0 {
		batch := seqs[:min(len(seqs), opts.batchSize)]
		seqs = seqs[len(batch):]

		var payload []byte
		for _, seq := range batch {
			payload = append(payload, opts.generator.line(seq)...)
			payload = append(payload, '\n')
		}

		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			res.failed.Add(int64(len(batch)))
			log.Printf("TCP dial failed: %v", err)
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		_, err = conn.Write(payload)
		conn.Close()

		if err != nil {
			res.failed.Add(int64(len(batch)))
			continue
		}
		res.sent.Add(int64(len(batch)))
	}
}
