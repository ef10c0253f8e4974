package sockwire

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/sockdb/internal/engine"
	"github.com/tuannm99/sockdb/internal/sql"
)

type ServerConfig struct {
	Addr         string
	SnapshotPath string
	Compress     bool
	NotifyBuffer int
}

// Server owns the shared database and the notification hub. Statement
// execution is serialized: the engine itself is single-writer.
type Server struct {
	cfg ServerConfig
	hub *Hub

	mu sync.Mutex
	db *engine.Database
}

func NewServer(cfg ServerConfig) *Server {
	db := engine.NewDatabase()
	hub := NewHub(cfg.NotifyBuffer)
	db.SetNotifier(hub)
	return &Server{cfg: cfg, hub: hub, db: db}
}

// Run listens on the configured address and serves until SIGINT/SIGTERM.
func Run(cfg ServerConfig) error {
	return NewServer(cfg).Run()
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer func() { _ = ln.Close() }()

	slog.Info("sockdb tcp server listening", "addr", s.cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			slog.Error("accept", "err", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

type subscription struct {
	table string
	id    uuid.UUID
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Time{})

	out := make(chan Response)
	done := make(chan struct{})
	var wg sync.WaitGroup

	// Sole writer on conn: responses and notices share the channel so frames
	// never interleave. After a write error the channel is drained so senders
	// never block.
	go func() {
		failed := false
		for res := range out {
			if failed {
				continue
			}
			if err := WriteFrame(conn, res); err != nil {
				failed = true
			}
		}
	}()

	var subs []subscription
	defer func() {
		for _, sub := range subs {
			s.hub.Unregister(sub.table, sub.id)
		}
		close(done)
		wg.Wait()
		close(out)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req Request
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			return
		}

		if req.Subscribe != "" {
			id, ch := s.hub.Register(req.Subscribe)
			subs = append(subs, subscription{table: req.Subscribe, id: id})
			wg.Add(1)
			go func() {
				defer wg.Done()
				for n := range ch {
					select {
					case out <- Response{Table: n.Table, Notice: n.Message}:
					case <-done:
						return
					}
				}
			}()
			out <- Response{ID: req.ID}
			continue
		}

		view, exit, err := s.execute(req.Query)
		if err != nil {
			out <- Response{ID: req.ID, Error: err.Error()}
			continue
		}
		out <- Response{ID: req.ID, View: view}
		if exit {
			return
		}
	}
}

// execute runs a single SQL statement or meta command. The returned exit flag
// asks the caller to close the connection.
func (s *Server) execute(query string) (*engine.View, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if engine.IsMetaCommand(query) {
		cmd, err := engine.ParseMetaCommand(query)
		if err != nil {
			return nil, false, err
		}
		switch c := cmd.(type) {
		case *engine.ExitCmd:
			return nil, true, nil
		case *engine.ListTablesCmd:
			return s.db.ListTables(), false, nil
		case *engine.PersistCmd:
			path := c.Path
			if path == "" {
				path = s.cfg.SnapshotPath
			}
			return nil, false, s.db.Persist(path, s.cfg.Compress)
		case *engine.RestoreCmd:
			path := c.Path
			if path == "" {
				path = s.cfg.SnapshotPath
			}
			return nil, false, s.db.Restore(path)
		default:
			return nil, false, fmt.Errorf("sockwire: unknown meta command %T", cmd)
		}
	}

	stmt, err := sql.Parse(query)
	if err != nil {
		return nil, false, err
	}
	view, err := s.db.Execute(stmt)
	if err != nil {
		return nil, false, err
	}
	return view, false, nil
}
