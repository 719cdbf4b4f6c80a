package engine

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/yndnr/keymesh-go/internal/acl"
	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installACLHandlers() {
	s.register("acl", cmdACL)
}

func cmdACL(c *callCtx) resp.Value {
	sub, _ := c.args.String()
	switch strings.ToUpper(sub) {
	case "WHOAMI":
		return resp.BulkText(c.sess.UserName())

	case "LIST":
		var out []resp.Value
		for _, name := range c.srv.acl.Users() {
			u, _ := c.srv.acl.User(name)
			out = append(out, resp.BulkText(describeUser(u)))
		}
		return resp.Array(out...)

	case "USERS":
		return resp.BulkArrayStrings(c.srv.acl.Users())

	case "CAT":
		if c.args.More() {
			cat, _ := c.args.String()
			if !c.srv.registry.CategoryExists(strings.ToLower(cat)) {
				return resp.Err("ERR", "Unknown ACL cat '"+cat+"'")
			}
			cmds := c.srv.registry.CategoryCommands(strings.ToLower(cat))
			sort.Strings(cmds)
			return resp.BulkArrayStrings(cmds)
		}
		cats := c.srv.registry.Categories()
		sort.Strings(cats)
		return resp.BulkArrayStrings(cats)

	case "GETUSER":
		name, err := c.args.String()
		if err != nil {
			return errWrongArgs("acl")
		}
		u, ok := c.srv.acl.User(name)
		if !ok {
			return resp.NullArray()
		}
		flags := make([]resp.Value, 0, 4)
		for _, f := range u.Flags() {
			flags = append(flags, resp.SimpleString(f))
		}
		passwords := make([]resp.Value, 0, len(u.Passwords))
		for _, p := range u.Passwords {
			passwords = append(passwords, resp.BulkText(p))
		}
		return resp.Map(
			resp.BulkText("flags"), resp.Array(flags...),
			resp.BulkText("passwords"), resp.Array(passwords...),
			resp.BulkText("commands"), resp.BulkText(u.DescribeRules()),
			resp.BulkText("keys"), resp.BulkText(u.DescribeKeys()),
			resp.BulkText("channels"), resp.BulkText(u.DescribeChannels()),
		)

	case "SETUSER":
		name, err := c.args.String()
		if err != nil {
			return errWrongArgs("acl")
		}
		rules := c.args.RestStrings()

		// Apply to a copy first so a bad rule leaves the user as-is.
		existing, had := c.srv.acl.User(name)
		work := acl.NewUser(name)
		if had {
			clone := *existing
			work = &clone
		}
		for _, rule := range rules {
			if err := work.ApplyRule(rule, c.srv.registry); err != nil {
				return resp.Err("ERR",
					"Error in ACL SETUSER modifier '"+rule+"': Syntax error")
			}
		}
		u := c.srv.acl.GetOrCreate(name)
		*u = *work
		return resp.OK

	case "DELUSER":
		names := c.args.RestStrings()
		if len(names) == 0 {
			return errWrongArgs("acl")
		}
		for _, name := range names {
			if name == acl.DefaultUserName {
				return resp.Err("ERR", "The 'default' user cannot be removed")
			}
		}
		return resp.Integer(int64(c.srv.acl.Delete(names...)))

	case "GENPASS":
		bits := int64(256)
		if c.args.More() {
			v, err := c.args.Int()
			if err != nil || v <= 0 || v > 4096 {
				return resp.Err("ERR", "ACL GENPASS argument must be the number of bits for the output password, a positive number up to 4096")
			}
			bits = v
		}
		buf := make([]byte, (bits+7)/8)
		if _, err := rand.Read(buf); err != nil {
			return resp.Err("ERR", "failed to generate password")
		}
		out := hex.EncodeToString(buf)
		// Trim to the exact hex-digit count for the requested bits.
		digits := (bits + 3) / 4
		if int64(len(out)) > digits {
			out = out[:digits]
		}
		return resp.BulkText(out)

	case "HELP":
		return resp.Array(
			resp.SimpleString("ACL WHOAMI|LIST|USERS|CAT|GETUSER|SETUSER|DELUSER|GENPASS"),
		)
	}
	return errUnknownSubcommand("acl", sub)
}

// describeUser renders the ACL LIST line for a user.
func describeUser(u *acl.User) string {
	parts := []string{"user", u.Name}
	if u.On {
		parts = append(parts, "on")
	} else {
		parts = append(parts, "off")
	}
	if u.NoPass {
		parts = append(parts, "nopass")
	}
	for _, p := range u.Passwords {
		parts = append(parts, "#"+p)
	}
	if keys := u.DescribeKeys(); keys != "" {
		parts = append(parts, keys)
	}
	if chans := u.DescribeChannels(); chans != "" {
		parts = append(parts, chans)
	}
	parts = append(parts, u.DescribeRules())
	return strings.Join(parts, " ")
}
