package listener

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// DefaultMaxWorkers bounds the datagrams processed at the same time.
const DefaultMaxWorkers = 100

// Configure a larger buffer for UDP packets
const udpBufferSize = 64 * 1024

// UDPListener receives one syslog message per datagram.
type UDPListener struct {
	addr       string
	ingestor   *Ingestor
	maxWorkers int

	conn *net.UDPConn
	wg   sync.WaitGroup
}

func NewUDPListener(addr string, ingestor *Ingestor, maxWorkers int) *UDPListener {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &UDPListener{
		addr:       addr,
		ingestor:   ingestor,
		maxWorkers: maxWorkers,
	}
}

// Listen binds the UDP endpoint. Failure is returned as a *BindError.
func (l *UDPListener) Listen() error {
	udpAddr, err := net.ResolveUDPAddr("udp", l.addr)
	if err != nil {
		return &BindError{Network: "udp", Addr: l.addr, Err: err}
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return &BindError{Network: "udp", Addr: l.addr, Err: err}
	}
	l.conn = conn

	log.Printf("UDP listener is running on %s", conn.LocalAddr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (l *UDPListener) Addr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled, which returns nil, or the
// socket fails, which closes it and returns the error. Each datagram is
// handled by its own goroutine; when maxWorkers are busy reading pauses
// and new datagrams wait in the OS socket buffer.
func (l *UDPListener) Serve(ctx context.Context) error {
	if l.conn == nil {
		return errors.New("udp listener is not bound")
	}
	defer l.wg.Wait()

	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()

	semaphore := make(chan struct{}, l.maxWorkers)
	buffer := make([]byte, udpBufferSize)

	for {
		n, src, err := l.conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("UDP listener on %s stopped", l.conn.LocalAddr())
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			log.Printf("Error reading from UDP: %v", err)
			l.conn.Close()
			return fmt.Errorf("udp socket error: %w", err)
		}
		receivedAt := time.Now()

		// Make a copy of the received data to process
		data := make([]byte, n)
		copy(data, buffer[:n])

		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			// No worker will free up in time, the datagram is already read
			l.ingestor.Ingest(data, hostOf(src), receivedAt)
			return nil
		}

		l.wg.Add(1)
		go func(data []byte, sourceIP string) {
			defer func() {
				<-semaphore
				l.wg.Done()
			}()
			l.ingestor.Ingest(data, sourceIP, receivedAt)
		}(data, hostOf(src))
	}
}

// Close releases the socket of a listener that is not serving.
func (l *UDPListener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}

// Run binds and serves. A bind error is returned before any read.
func (l *UDPListener) Run(ctx context.Context) error {
	if err := l.Listen(); err != nil {
		return err
	}
	return l.Serve(ctx)
}
