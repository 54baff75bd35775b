package listener

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"
)

// tcpIdleTimeout closes connections that send nothing for this long.
const tcpIdleTimeout = 2 * time.Minute

// 1MB max message size
const maxScanSize = 1024 * 1024

// TCPListener receives newline-framed syslog messages, one record per line.
type TCPListener struct {
	addr           string
	ingestor       *Ingestor
	maxConnections int

	listener net.Listener
	wg       sync.WaitGroup
}

func NewTCPListener(addr string, ingestor *Ingestor, maxConnections int) *TCPListener {
	if maxConnections <= 0 {
		maxConnections = DefaultMaxWorkers
	}
	return &TCPListener{
		addr:           addr,
		ingestor:       ingestor,
		maxConnections: maxConnections,
	}
}

// Listen binds the TCP endpoint. Failure is returned as a *BindError.
func (l *TCPListener) Listen() error {
	listener, err := net.Listen("tcp", l.addr)
	if err != nil {
		return &BindError{Network: "tcp", Addr: l.addr, Err: err}
	}
	l.listener = listener

	log.Printf("TCP listener is running on %s", listener.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (l *TCPListener) Addr() net.Addr {
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Serve accepts connections until ctx is cancelled. Open connections are
// closed on cancellation and Serve waits for their handlers to return.
func (l *TCPListener) Serve(ctx context.Context) error {
	if l.listener == nil {
		return errors.New("tcp listener is not bound")
	}
	defer l.wg.Wait()

	stop := context.AfterFunc(ctx, func() { l.listener.Close() })
	defer stop()

	// Use a semaphore to limit concurrent connections
	semaphore := make(chan struct{}, l.maxConnections)

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("TCP listener on %s stopped", l.listener.Addr())
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("Error accepting TCP connection: %v", err)
			continue
		}

		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			conn.Close()
			return nil
		}

		l.wg.Add(1)
		go func(c net.Conn) {
			defer func() {
				<-semaphore
				l.wg.Done()
			}()
			l.handleConnection(ctx, c)
		}(conn)
	}
}

// Close releases the socket of a listener that is not serving.
func (l *TCPListener) Close() error {
	if l.listener == nil {
		return nil
	}
	return l.listener.Close()
}

// Run binds and serves.
func (l *TCPListener) Run(ctx context.Context) error {
	if err := l.Listen(); err != nil {
		return err
	}
	return l.Serve(ctx)
}

// handleConnection ingests every non-empty line until EOF, idle timeout or
// cancellation.
func (l *TCPListener) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sourceIP := hostOf(conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanSize)

	for {
		conn.SetReadDeadline(time.Now().Add(tcpIdleTimeout))

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && ctx.Err() == nil {
				log.Printf("TCP connection from %s closed: %v", sourceIP, err)
			}
			return
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			// Skip empty lines (like keepalives)
			continue
		}

		l.ingestor.Ingest(line, sourceIP, time.Now())
	}
}
