package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/keymesh-go/internal/infra/buildinfo"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func main() {
	app := &cli.App{
		Name:    "keymesh-cli",
		Usage:   "interactive client for keymesh-server",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Aliases: []string{"H"}, Value: "127.0.0.1", Usage: "server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 6379, Usage: "server port"},
			&cli.StringFlag{Name: "auth", Aliases: []string{"a"}, Usage: "password (AUTH on connect)"},
			&cli.StringFlag{Name: "user", Usage: "ACL username for AUTH"},
			&cli.IntFlag{Name: "db", Aliases: []string{"n"}, Usage: "database number (SELECT on connect)"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "dial and command timeout"},
		},
		Action: runClient,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type client struct {
	conn    net.Conn
	br      *bufio.Reader
	writer  *resp.Writer
	timeout time.Duration
}

func dial(c *cli.Context) (*client, error) {
	addr := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))
	conn, err := net.DialTimeout("tcp", addr, c.Duration("timeout"))
	if err != nil {
		return nil, err
	}
	cl := &client{
		conn:    conn,
		br:      bufio.NewReader(conn),
		writer:  resp.NewWriter(bufio.NewWriter(conn), 2),
		timeout: c.Duration("timeout"),
	}

	if pass := c.String("auth"); pass != "" {
		args := [][]byte{[]byte("AUTH"), []byte(pass)}
		if user := c.String("user"); user != "" {
			args = [][]byte{[]byte("AUTH"), []byte(user), []byte(pass)}
		}
		if _, err := cl.roundTrip(args); err != nil {
			conn.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
	}
	if db := c.Int("db"); db > 0 {
		if _, err := cl.roundTrip([][]byte{[]byte("SELECT"), []byte(strconv.Itoa(db))}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("select: %w", err)
		}
	}
	return cl, nil
}

func (cl *client) roundTrip(args [][]byte) (resp.Value, error) {
	_ = cl.conn.SetDeadline(time.Now().Add(cl.timeout))
	elems := make([]resp.Value, len(args))
	for i, a := range args {
		elems[i] = resp.BulkString(a)
	}
	if err := cl.writer.WriteValue(resp.Array(elems...)); err != nil {
		return resp.Value{}, err
	}
	if err := cl.writer.Flush(); err != nil {
		return resp.Value{}, err
	}
	return resp.ReadValue(cl.br)
}

func runClient(c *cli.Context) error {
	cl, err := dial(c)
	if err != nil {
		return err
	}
	defer cl.conn.Close()

	// One-shot mode: command given on the command line.
	if c.Args().Len() > 0 {
		args := make([][]byte, c.Args().Len())
		for i, a := range c.Args().Slice() {
			args[i] = []byte(a)
		}
		reply, err := cl.roundTrip(args)
		if err != nil {
			return err
		}
		fmt.Print(formatReply(reply, 0))
		if reply.IsError() {
			os.Exit(1)
		}
		return nil
	}

	// Interactive prompt.
	scanner := bufio.NewScanner(os.Stdin)
	prompt := c.String("host") + ":" + strconv.Itoa(c.Int("port")) + "> "
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return nil
		}

		tokens, err := tokenize(line)
		if err != nil {
			fmt.Println("(error)", err)
			continue
		}
		reply, err := cl.roundTrip(tokens)
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
		fmt.Print(formatReply(reply, 0))
	}
}

// tokenize splits a command line honoring double and single quotes.
func tokenize(line string) ([][]byte, error) {
	var out [][]byte
	var cur []byte
	inToken := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == ' ' || ch == '\t':
			if inToken {
				out = append(out, cur)
				cur = nil
				inToken = false
			}
		case ch == '"' || ch == '\'':
			quote := ch
			i++
			inToken = true
			for ; i < len(line) && line[i] != quote; i++ {
				if line[i] == '\\' && i+1 < len(line) && quote == '"' {
					i++
					switch line[i] {
					case 'n':
						cur = append(cur, '\n')
					case 'r':
						cur = append(cur, '\r')
					case 't':
						cur = append(cur, '\t')
					default:
						cur = append(cur, line[i])
					}
					continue
				}
				cur = append(cur, line[i])
			}
			if i >= len(line) {
				return nil, fmt.Errorf("unterminated quote")
			}
		default:
			inToken = true
			cur = append(cur, ch)
		}
	}
	if inToken {
		out = append(out, cur)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return out, nil
}

// formatReply renders a reply the way redis-cli does.
func formatReply(v resp.Value, indent int) string {
	pad := strings.Repeat("  ", indent)
	switch v.Kind {
	case resp.KindSimpleString:
		return pad + v.Str + "\n"
	case resp.KindError:
		return pad + "(error) " + v.Str + "\n"
	case resp.KindInteger:
		return pad + "(integer) " + strconv.FormatInt(v.Int, 10) + "\n"
	case resp.KindBulkString, resp.KindVerbatim:
		return pad + strconv.Quote(string(v.Bulk)) + "\n"
	case resp.KindNull:
		return pad + "(nil)\n"
	case resp.KindDouble:
		return pad + "(double) " + resp.FormatFloat(v.Float) + "\n"
	case resp.KindBoolean:
		if v.Bool {
			return pad + "(true)\n"
		}
		return pad + "(false)\n"
	case resp.KindBigNumber:
		return pad + "(big number) " + v.Str + "\n"
	case resp.KindArray, resp.KindSet, resp.KindPush, resp.KindMap:
		if len(v.Elems) == 0 {
			return pad + "(empty array)\n"
		}
		var b strings.Builder
		for i, e := range v.Elems {
			b.WriteString(pad + strconv.Itoa(i+1) + ") ")
			sub := formatReply(e, 0)
			b.WriteString(strings.TrimPrefix(sub, pad))
		}
		return b.String()
	}
	return pad + "(unknown reply)\n"
}
