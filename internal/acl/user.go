package acl

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/keymesh-go/pkg/glob"
)

// KeyMode is the access direction a command needs on a key.
type KeyMode int

const (
	KeyRead KeyMode = 1 << iota
	KeyWrite
	KeyReadWrite KeyMode = KeyRead | KeyWrite
)

// CmdRule is one entry in a user's ordered command rule list.
type CmdRule struct {
	Allow    bool
	Category string // set for +@cat / -@cat rules
	Name     string // lowercase command name, possibly "parent|sub"
	All      bool   // +@all / -@all / allcommands
}

func (r CmdRule) String() string {
	sign := "-"
	if r.Allow {
		sign = "+"
	}
	if r.All {
		return sign + "@all"
	}
	if r.Category != "" {
		return sign + "@" + r.Category
	}
	return sign + r.Name
}

// KeyPattern is a glob with an access mode. Mode 0 means both.
type KeyPattern struct {
	Pattern string
	Mode    KeyMode
}

func (p KeyPattern) String() string {
	switch p.Mode {
	case KeyRead:
		return "%R~" + p.Pattern
	case KeyWrite:
		return "%W~" + p.Pattern
	}
	return "~" + p.Pattern
}

// User is one ACL identity.
type User struct {
	Name      string
	On        bool
	NoPass    bool
	Passwords []string // hex sha256, insertion order

	CmdRules        []CmdRule
	KeyPatterns     []KeyPattern
	ChannelPatterns []string
}

// NewUser creates a disabled user with no permissions.
func NewUser(name string) *User {
	return &User{Name: name}
}

// HashPassword returns the stored form of a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword verifies a cleartext password against the user.
func (u *User) CheckPassword(password string) bool {
	if u.NoPass {
		return true
	}
	h := HashPassword(password)
	for _, p := range u.Passwords {
		if p == h {
			return true
		}
	}
	return false
}

// CategoryLookup answers whether a command belongs to a category and
// whether a category name exists at all. The command registry provides
// it; keeping it behind an interface avoids an import cycle.
type CategoryLookup interface {
	CommandInCategory(command, category string) bool
	CategoryExists(category string) bool
}

// ErrBadRule reports an unparseable SETUSER modifier.
var ErrBadRule = errors.New("syntax error")

// ApplyRule applies one SETUSER modifier to the user.
func (u *User) ApplyRule(rule string, categories CategoryLookup) error {
	lower := strings.ToLower(rule)
	switch lower {
	case "on":
		u.On = true
		return nil
	case "off":
		u.On = false
		return nil
	case "nopass":
		u.NoPass = true
		u.Passwords = nil
		return nil
	case "resetpass":
		u.NoPass = false
		u.Passwords = nil
		return nil
	case "allkeys", "~*":
		u.KeyPatterns = []KeyPattern{{Pattern: "*"}}
		return nil
	case "resetkeys":
		u.KeyPatterns = nil
		return nil
	case "allchannels", "&*":
		u.ChannelPatterns = []string{"*"}
		return nil
	case "resetchannels":
		u.ChannelPatterns = nil
		return nil
	case "allcommands", "+@all":
		u.CmdRules = append(u.CmdRules, CmdRule{Allow: true, All: true})
		return nil
	case "nocommands", "-@all":
		u.CmdRules = append(u.CmdRules, CmdRule{Allow: false, All: true})
		return nil
	case "reset":
		*u = *NewUser(u.Name)
		return nil
	}

	switch {
	case strings.HasPrefix(rule, ">"):
		u.NoPass = false
		u.addPassword(HashPassword(rule[1:]))
		return nil
	case strings.HasPrefix(rule, "<"):
		u.removePassword(HashPassword(rule[1:]))
		return nil
	case strings.HasPrefix(rule, "#"):
		h := strings.ToLower(rule[1:])
		if !isHexDigest(h) {
			return fmt.Errorf("%w: bad password hash", ErrBadRule)
		}
		u.NoPass = false
		u.addPassword(h)
		return nil
	case strings.HasPrefix(rule, "!"):
		u.removePassword(strings.ToLower(rule[1:]))
		return nil
	case strings.HasPrefix(rule, "~"):
		u.KeyPatterns = append(u.KeyPatterns, KeyPattern{Pattern: rule[1:]})
		return nil
	case strings.HasPrefix(rule, "%"):
		return u.applyModedKeyPattern(rule)
	case strings.HasPrefix(rule, "&"):
		u.ChannelPatterns = append(u.ChannelPatterns, rule[1:])
		return nil
	case strings.HasPrefix(lower, "+@"), strings.HasPrefix(lower, "-@"):
		cat := lower[2:]
		if categories != nil && !categories.CategoryExists(cat) {
			return fmt.Errorf("%w: unknown category '%s'", ErrBadRule, cat)
		}
		u.CmdRules = append(u.CmdRules, CmdRule{Allow: lower[0] == '+', Category: cat})
		return nil
	case strings.HasPrefix(lower, "+"), strings.HasPrefix(lower, "-"):
		name := lower[1:]
		if name == "" {
			return ErrBadRule
		}
		u.CmdRules = append(u.CmdRules, CmdRule{Allow: lower[0] == '+', Name: name})
		return nil
	}
	return ErrBadRule
}

func (u *User) applyModedKeyPattern(rule string) error {
	tilde := strings.IndexByte(rule, '~')
	if tilde < 0 {
		return ErrBadRule
	}
	var mode KeyMode
	for _, c := range strings.ToUpper(rule[1:tilde]) {
		switch c {
		case 'R':
			mode |= KeyRead
		case 'W':
			mode |= KeyWrite
		default:
			return ErrBadRule
		}
	}
	if mode == 0 {
		return ErrBadRule
	}
	if mode == KeyReadWrite {
		mode = 0
	}
	u.KeyPatterns = append(u.KeyPatterns, KeyPattern{Pattern: rule[tilde+1:], Mode: mode})
	return nil
}

func (u *User) addPassword(hash string) {
	for _, p := range u.Passwords {
		if p == hash {
			return
		}
	}
	u.Passwords = append(u.Passwords, hash)
}

func (u *User) removePassword(hash string) {
	for i, p := range u.Passwords {
		if p == hash {
			u.Passwords = append(u.Passwords[:i], u.Passwords[i+1:]...)
			return
		}
	}
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// CheckCommand evaluates the ordered rules for a command, last match
// winning; the implicit starting rule is -@all.
func (u *User) CheckCommand(name string, categories CategoryLookup) bool {
	name = strings.ToLower(name)
	allowed := false
	for _, r := range u.CmdRules {
		switch {
		case r.All:
			allowed = r.Allow
		case r.Category != "":
			if categories != nil && categories.CommandInCategory(name, r.Category) {
				allowed = r.Allow
			}
		case r.Name == name:
			allowed = r.Allow
		case strings.Contains(r.Name, "|") && strings.HasPrefix(name, r.Name):
			allowed = r.Allow
		}
	}
	return allowed
}

// CheckKey reports whether any key pattern admits the key for the mode.
func (u *User) CheckKey(key string, mode KeyMode) bool {
	for _, p := range u.KeyPatterns {
		if p.Mode != 0 && p.Mode&mode != mode {
			continue
		}
		if glob.Match(p.Pattern, key) {
			return true
		}
	}
	return false
}

// CheckChannel reports whether any channel pattern admits the channel.
// For pattern subscriptions the requested pattern itself must be
// admitted, so a user holding &news.* may PSUBSCRIBE news.* but not *.
func (u *User) CheckChannel(channel string, isPattern bool) bool {
	for _, p := range u.ChannelPatterns {
		if isPattern {
			if p == channel || p == "*" {
				return true
			}
			continue
		}
		if glob.Match(p, channel) {
			return true
		}
	}
	return false
}

// DescribeRules renders the command rule list, always leading with the
// implicit -@all.
func (u *User) DescribeRules() string {
	parts := []string{"-@all"}
	for _, r := range u.CmdRules {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " ")
}

// DescribeKeys renders the key pattern list.
func (u *User) DescribeKeys() string {
	parts := make([]string, 0, len(u.KeyPatterns))
	for _, p := range u.KeyPatterns {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " ")
}

// DescribeChannels renders the channel pattern list.
func (u *User) DescribeChannels() string {
	parts := make([]string, 0, len(u.ChannelPatterns))
	for _, p := range u.ChannelPatterns {
		parts = append(parts, "&"+p)
	}
	return strings.Join(parts, " ")
}

// Flags returns the flag strings ACL GETUSER reports.
func (u *User) Flags() []string {
	flags := []string{"off"}
	if u.On {
		flags[0] = "on"
	}
	if u.NoPass {
		flags = append(flags, "nopass")
	}
	if len(u.KeyPatterns) == 1 && u.KeyPatterns[0].Pattern == "*" && u.KeyPatterns[0].Mode == 0 {
		flags = append(flags, "allkeys")
	}
	if len(u.ChannelPatterns) == 1 && u.ChannelPatterns[0] == "*" {
		flags = append(flags, "allchannels")
	}
	return flags
}
