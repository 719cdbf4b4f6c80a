package engine

import (
	"sort"
	"strings"

	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installClientHandlers() {
	s.register("client", cmdClient)
}

func cmdClient(c *callCtx) resp.Value {
	sub, _ := c.args.String()
	switch strings.ToUpper(sub) {
	case "ID":
		return resp.Integer(c.sess.id)

	case "GETNAME":
		return resp.BulkText(c.sess.name)

	case "SETNAME":
		name, err := c.args.String()
		if err != nil {
			return errWrongArgs("client")
		}
		if strings.ContainsAny(name, " \n") {
			return resp.Err("ERR", "Client names cannot contain spaces, newlines or special characters.")
		}
		c.sess.name = name
		return resp.OK

	case "SETINFO":
		attr, _ := c.args.String()
		value, err := c.args.String()
		if err != nil {
			return errWrongArgs("client")
		}
		switch strings.ToUpper(attr) {
		case "LIB-NAME":
			c.sess.libName = value
		case "LIB-VER":
			c.sess.libVersion = value
		default:
			return resp.Err("ERR", "Unrecognized option '"+attr+"'")
		}
		return resp.OK

	case "LIST":
		return resp.BulkText(c.srv.clientListText())

	case "INFO":
		return resp.BulkText(c.srv.clientLine(c.sess))

	case "REPLY":
		mode, err := c.args.String()
		if err != nil {
			return errWrongArgs("client")
		}
		switch strings.ToUpper(mode) {
		case "ON":
			c.sess.replyMode = ReplyOn
			return resp.OK
		case "OFF":
			c.sess.replyMode = ReplyOff
			return suppressedReply
		case "SKIP":
			// SKIP silences the next command's reply; the SKIP reply
			// itself is silent too.
			c.sess.replyMode = ReplySkip
			return suppressedReply
		}
		return errSyntax

	case "NO-EVICT":
		onOff, err := c.args.String()
		if err != nil {
			return errWrongArgs("client")
		}
		switch strings.ToUpper(onOff) {
		case "ON":
			c.sess.noEvict = true
		case "OFF":
			c.sess.noEvict = false
		default:
			return errSyntax
		}
		return resp.OK

	case "NO-TOUCH":
		onOff, err := c.args.String()
		if err != nil {
			return errWrongArgs("client")
		}
		switch strings.ToUpper(onOff) {
		case "ON":
			c.sess.noTouch = true
		case "OFF":
			c.sess.noTouch = false
		default:
			return errSyntax
		}
		return resp.OK

	case "UNBLOCK":
		id, err := c.args.Int()
		if err != nil {
			return wireErr(err)
		}
		withError := false
		if c.args.More() {
			mode, _ := c.args.String()
			switch strings.ToUpper(mode) {
			case "TIMEOUT":
			case "ERROR":
				withError = true
			default:
				return errSyntax
			}
		}
		if c.srv.coord.Unblock(id, withError) {
			return resp.Integer(1)
		}
		return resp.Integer(0)

	case "KILL":
		return cmdClientKill(c)

	case "HELP":
		return resp.Array(
			resp.SimpleString("CLIENT ID|GETNAME|SETNAME|SETINFO|LIST|INFO|REPLY|KILL|UNBLOCK|NO-EVICT|NO-TOUCH"),
		)
	}
	return errUnknownSubcommand("client", sub)
}

// cmdClientKill supports the filter form (ID, ADDR, USER, SKIPME) and
// the legacy addr-only form. Other filters, such as LADDR and MAXAGE,
// are not recognised and get a syntax error.
func cmdClientKill(c *callCtx) resp.Value {
	type filter struct {
		id      int64
		hasID   bool
		addr    string
		user    string
		skipMe  bool
		hasSkip bool
	}
	f := filter{skipMe: true}

	legacy := false
	if c.args.Remaining() == 1 {
		addr, _ := c.args.String()
		f.addr = addr
		legacy = true
	}

	for c.args.More() {
		tok, _ := c.args.Peek()
		switch tok {
		case "ID":
			c.args.Next()
			v, err := c.args.Int()
			if err != nil {
				return wireErr(err)
			}
			f.id = v
			f.hasID = true
		case "ADDR":
			c.args.Next()
			addr, err := c.args.String()
			if err != nil {
				return errSyntax
			}
			f.addr = addr
		case "USER":
			c.args.Next()
			user, err := c.args.String()
			if err != nil {
				return errSyntax
			}
			f.user = user
		case "SKIPME":
			c.args.Next()
			v, err := c.args.String()
			if err != nil {
				return errSyntax
			}
			f.skipMe = strings.EqualFold(v, "yes")
			f.hasSkip = true
		default:
			return errSyntax
		}
	}

	killed := 0
	for _, sess := range c.srv.clients.Values() {
		if f.hasID && sess.id != f.id {
			continue
		}
		if f.addr != "" && sess.conn.RemoteAddr() != f.addr {
			continue
		}
		if f.user != "" && sess.UserName() != f.user {
			continue
		}
		if f.skipMe && sess.id == c.sess.id {
			continue
		}
		c.srv.coord.Unblock(sess.id, true)
		sess.conn.CloseConn()
		killed++
	}

	if legacy {
		if killed == 0 {
			return resp.Err("ERR", "No such client address in the client list")
		}
		return resp.OK
	}
	return resp.Integer(int64(killed))
}

// clientLine renders one CLIENT LIST row.
func (s *Server) clientLine(sess *Session) string {
	var b strings.Builder
	b.WriteString("id=")
	b.WriteString(intToString(sess.id))
	b.WriteString(" addr=")
	b.WriteString(sess.conn.RemoteAddr())
	b.WriteString(" name=")
	b.WriteString(sess.name)
	b.WriteString(" db=")
	b.WriteString(intToString(int64(sess.db)))
	b.WriteString(" sub=")
	b.WriteString(intToString(int64(s.hub.ChannelCount(sess.id))))
	b.WriteString(" resp=")
	b.WriteString(intToString(int64(sess.proto)))
	b.WriteString(" user=")
	b.WriteString(sess.UserName())
	b.WriteString(" cmd=")
	b.WriteString(sess.lastCmd)
	if sess.libName != "" {
		b.WriteString(" lib-name=")
		b.WriteString(sess.libName)
	}
	if sess.libVersion != "" {
		b.WriteString(" lib-ver=")
		b.WriteString(sess.libVersion)
	}
	flags := "N"
	if sess.InTx() {
		flags = "x"
	}
	if s.coord.IsBlocked(sess.id) {
		flags = "b"
	}
	b.WriteString(" flags=")
	b.WriteString(flags)
	return b.String()
}

func (s *Server) clientListText() string {
	sessions := s.clients.Values()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].id < sessions[j].id })
	var b strings.Builder
	for _, sess := range sessions {
		b.WriteString(s.clientLine(sess))
		b.WriteByte('\n')
	}
	return b.String()
}
