package engine

import (
	"strconv"

	"github.com/yndnr/keymesh-go/internal/acl"
	"github.com/yndnr/keymesh-go/internal/infra/buildinfo"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installConnHandlers() {
	s.register("ping", cmdPing)
	s.register("echo", cmdEcho)
	s.register("select", cmdSelect)
	s.register("auth", cmdAuth)
	s.register("hello", cmdHello)
	s.register("reset", cmdReset)
	s.register("quit", cmdQuit)
}

func cmdPing(c *callCtx) resp.Value {
	// In RESP2 subscriber mode PING replies with a two-element array.
	if c.srv.hub.Count(c.sess.id) > 0 && c.sess.proto == 2 {
		msg := resp.BulkText("")
		if c.args.More() {
			b, _ := c.args.Next()
			msg = resp.BulkString(b)
		}
		return resp.Array(resp.BulkText("pong"), msg)
	}
	if c.args.More() {
		b, _ := c.args.Next()
		if c.args.More() {
			return errWrongArgs("ping")
		}
		return resp.BulkString(b)
	}
	return resp.SimpleString("PONG")
}

func cmdEcho(c *callCtx) resp.Value {
	b, _ := c.args.Next()
	return resp.BulkString(b)
}

func cmdSelect(c *callCtx) resp.Value {
	n, err := c.args.Int()
	if err != nil {
		return wireErr(err)
	}
	if n < 0 || int(n) >= len(c.srv.dbs) {
		return errDBIndex
	}
	c.sess.db = int(n)
	return resp.OK
}

func cmdAuth(c *callCtx) resp.Value {
	first, _ := c.args.String()
	username := acl.DefaultUserName
	password := first
	if c.args.More() {
		username = first
		password, _ = c.args.String()
	}

	if username == acl.DefaultUserName && !c.srv.acl.RequiresAuth() {
		return resp.Err("ERR",
			"Client sent AUTH, but no password is set. Did you mean AUTH <username> <password>?")
	}

	user, err := c.srv.acl.Authenticate(username, password)
	if err != nil {
		c.srv.logger.Warn("authentication failed", "user", username, "client", c.sess.id)
		return wireErr(err)
	}
	c.sess.user = user
	c.sess.authed = true
	return resp.OK
}

func cmdHello(c *callCtx) resp.Value {
	if c.args.More() {
		raw, _ := c.args.String()
		// The protover argument is optional but must be valid if
		// present.
		ver, err := strconv.Atoi(raw)
		if err != nil || (ver != 2 && ver != 3) {
			return resp.Err("NOPROTO", "unsupported protocol version")
		}

		for c.args.More() {
			tok, _ := c.args.Peek()
			switch tok {
			case "AUTH":
				c.args.Next()
				username, _ := c.args.String()
				password, err := c.args.String()
				if err != nil {
					return errSyntax
				}
				user, aerr := c.srv.acl.Authenticate(username, password)
				if aerr != nil {
					return wireErr(aerr)
				}
				c.sess.user = user
				c.sess.authed = true
			case "SETNAME":
				c.args.Next()
				name, err := c.args.String()
				if err != nil {
					return errSyntax
				}
				c.sess.name = name
			default:
				return errSyntax
			}
		}

		c.sess.proto = ver
		c.sess.conn.SetProtocol(ver)
	}

	if !c.sess.authed {
		return errNoAuth
	}

	return resp.Map(
		resp.BulkText("server"), resp.BulkText("keymesh"),
		resp.BulkText("version"), resp.BulkText(buildinfo.Version),
		resp.BulkText("proto"), resp.Integer(int64(c.sess.proto)),
		resp.BulkText("id"), resp.Integer(c.sess.id),
		resp.BulkText("mode"), resp.BulkText("standalone"),
		resp.BulkText("role"), resp.BulkText("master"),
		resp.BulkText("modules"), resp.Array(),
	)
}

func cmdReset(c *callCtx) resp.Value {
	sess := c.sess
	sess.resetTx()
	c.srv.hub.UnsubscribeAll(sess.id)
	c.srv.coord.Unblock(sess.id, false)
	sess.db = 0
	sess.name = ""
	sess.replyMode = ReplyOn
	if c.srv.acl.RequiresAuth() {
		sess.authed = false
		sess.user = nil
	} else {
		sess.user = c.srv.acl.Default()
		sess.authed = true
	}
	return resp.SimpleString("RESET")
}

func cmdQuit(c *callCtx) resp.Value {
	// The OK goes out first; the transport's read loop closes the
	// connection when it sees the flag.
	c.sess.quit = true
	return resp.OK
}
