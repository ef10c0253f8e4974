package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/tuannm99/sockdb/internal/engine"
	"github.com/tuannm99/sockdb/server/sockwire"
)

// ---- TCP client ----

// Client multiplexes one connection: replies are matched to requests by ID,
// and unsolicited change notices (ID 0) go to the notice callback.
type Client struct {
	conn net.Conn
	id   atomic.Uint64

	wmu sync.Mutex // serializes frame writes

	mu      sync.Mutex
	pending map[uint64]chan sockwire.Response
	closed  bool

	onNotice func(table, message string)
}

func Dial(addr string, timeout time.Duration, onNotice func(table, message string)) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:     conn,
		pending:  map[uint64]chan sockwire.Response{},
		onNotice: onNotice,
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	for {
		var res sockwire.Response
		if err := sockwire.ReadFrame(c.conn, &res); err != nil {
			c.failAll()
			return
		}
		if res.ID == 0 {
			if c.onNotice != nil {
				c.onNotice(res.Table, res.Notice)
			}
			continue
		}
		c.mu.Lock()
		ch := c.pending[res.ID]
		delete(c.pending, res.ID)
		c.mu.Unlock()
		if ch != nil {
			ch <- res
		}
	}
}

func (c *Client) failAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) roundTrip(req sockwire.Request) (sockwire.Response, error) {
	ch := make(chan sockwire.Response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return sockwire.Response{}, fmt.Errorf("sockdb: connection closed")
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.wmu.Lock()
	err := sockwire.WriteFrame(c.conn, req)
	c.wmu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return sockwire.Response{}, err
	}

	res, ok := <-ch
	if !ok {
		return sockwire.Response{}, fmt.Errorf("sockdb: connection closed")
	}
	return res, nil
}

// Exec sends a SQL statement or a server-side meta command.
func (c *Client) Exec(query string) (*engine.View, error) {
	res, err := c.roundTrip(sockwire.Request{ID: c.id.Add(1), Query: query})
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	return res.View, nil
}

// Subscribe asks the server to push change notices for table.
func (c *Client) Subscribe(table string) error {
	res, err := c.roundTrip(sockwire.Request{ID: c.id.Add(1), Subscribe: table})
	if err != nil {
		return err
	}
	if res.Error != "" {
		return errors.New(res.Error)
	}
	return nil
}

// ---- History (own file) ----

type History struct {
	path  string
	lines []string
}

func NewHistory(path string) *History {
	return &History{path: path}
}

func (h *History) Load(max int) error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		h.lines = append(h.lines, s)
		if max > 0 && len(h.lines) > max {
			h.lines = h.lines[len(h.lines)-max:]
		}
	}
	return sc.Err()
}

func (h *History) Append(stmt string) error {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || h.path == "" {
		return nil
	}

	// store single-line; collapse whitespace/newlines
	stmt = compactOneLine(stmt)

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintln(f, stmt); err != nil {
		return err
	}
	h.lines = append(h.lines, stmt)
	return nil
}

func (h *History) Print(last int) {
	if last <= 0 || last > len(h.lines) {
		last = len(h.lines)
	}
	start := len(h.lines) - last
	if start < 0 {
		start = 0
	}
	for i := start; i < len(h.lines); i++ {
		fmt.Printf("%5d  %s\n", i+1, h.lines[i])
	}
}

func compactOneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// ---- REPL helpers ----

// statementComplete checks if we have a terminating ';' outside single quotes.
func statementComplete(buf string) bool {
	inQuote := false
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\'' {
			inQuote = !inQuote
			continue
		}
		if buf[i] == ';' && !inQuote {
			return true
		}
	}
	return false
}

func printView(v *engine.View) {
	if v == nil || len(v.Columns) == 0 {
		fmt.Println("OK")
		return
	}
	fmt.Print(v.String())
	fmt.Printf("(%d rows)\n", len(v.Rows))
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".sockdb_history"
	}
	return filepath.Join(home, ".sockdb_history")
}

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:5433", "server address")
		timeout  = flag.Duration("timeout", 3*time.Second, "dial timeout")
		histPath = flag.String("history", defaultHistoryPath(), "history file path")
		histMax  = flag.Int("history-max", 2000, "max history lines loaded into memory")
		oneShot  = flag.String("c", "", "execute one statement and exit (must end with ';')")
	)
	flag.Parse()

	onNotice := func(table, message string) {
		fmt.Printf("\nnotice [%s]: %s\n", table, message)
	}

	cli, err := Dial(*addr, *timeout, onNotice)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cli.Close() }()

	if strings.TrimSpace(*oneShot) != "" {
		view, err := cli.Exec(*oneShot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		printView(view)
		return
	}

	h := NewHistory(*histPath)
	_ = h.Load(*histMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sockdb> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	var buf strings.Builder

	fmt.Printf("connected to %s\n", *addr)
	fmt.Println("type .help for help")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl+C clears current buffer
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("sockdb> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// meta commands apply per line, no ';' needed
		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if handleMeta(cli, h, line) {
				return
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("sockdb> ")

		_ = h.Append(stmt)
		_ = rl.SaveHistory(compactOneLine(stmt))

		view, err := cli.Exec(stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printView(view)
	}
}

// handleMeta runs a dot command. It returns true when the REPL should exit.
func handleMeta(cli *Client, h *History, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".exit", ".quit":
		return true
	case ".help":
		fmt.Println(`meta commands:
  .exit | .quit          quit
  .tables                list tables
  .subscribe <table>     push change notices for a table
  .persist [path]        snapshot the database on the server
  .restore [path]        restore a snapshot on the server
  .history               print history
  .help                  show help

sql:
  end statement with ';' (parser requires it)
  multiline is supported (CLI will wait until ';')`)
		return false
	case ".history":
		h.Print(50)
		return false
	case ".subscribe":
		if len(fields) != 2 {
			fmt.Println("usage: .subscribe <table>")
			return false
		}
		if err := cli.Subscribe(fields[1]); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Printf("subscribed to %s\n", strings.ToUpper(fields[1]))
		return false
	default:
		// server-side meta command
		view, err := cli.Exec(line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		printView(view)
		return false
	}
}
