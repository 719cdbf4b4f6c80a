package acl

import (
	"errors"
	"sort"
)

// DefaultUserName is the identity unauthenticated connections run as
// (once AUTH-less access is permitted at all).
const DefaultUserName = "default"

// Authentication errors.
var (
	ErrAuthFailed = errors.New("WRONGPASS invalid username-password pair or user is disabled")
)

// ACL is the server's user table.
type ACL struct {
	users map[string]*User
}

// New creates the table with an open default user.
func New() *ACL {
	def := NewUser(DefaultUserName)
	def.On = true
	def.NoPass = true
	def.KeyPatterns = []KeyPattern{{Pattern: "*"}}
	def.ChannelPatterns = []string{"*"}
	def.CmdRules = []CmdRule{{Allow: true, All: true}}
	return &ACL{users: map[string]*User{DefaultUserName: def}}
}

// User returns a user by name.
func (a *ACL) User(name string) (*User, bool) {
	u, ok := a.users[name]
	return u, ok
}

// Default returns the default user.
func (a *ACL) Default() *User { return a.users[DefaultUserName] }

// GetOrCreate returns the named user, creating a disabled empty one.
func (a *ACL) GetOrCreate(name string) *User {
	if u, ok := a.users[name]; ok {
		return u
	}
	u := NewUser(name)
	a.users[name] = u
	return u
}

// Delete removes users by name, skipping the default user, and returns
// how many were removed.
func (a *ACL) Delete(names ...string) int {
	deleted := 0
	for _, name := range names {
		if name == DefaultUserName {
			continue
		}
		if _, ok := a.users[name]; ok {
			delete(a.users, name)
			deleted++
		}
	}
	return deleted
}

// Users returns all user names sorted.
func (a *ACL) Users() []string {
	names := make([]string, 0, len(a.users))
	for n := range a.users {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Authenticate verifies a username/password pair and returns the user.
// Disabled users and wrong passwords fail identically.
func (a *ACL) Authenticate(username, password string) (*User, error) {
	u, ok := a.users[username]
	if !ok || !u.On || !u.CheckPassword(password) {
		return nil, ErrAuthFailed
	}
	return u, nil
}

// SetDefaultPassword wires the legacy requirepass option into the
// default user: a non-empty password clears nopass and replaces the
// password list.
func (a *ACL) SetDefaultPassword(password string) {
	def := a.Default()
	if password == "" {
		def.NoPass = true
		def.Passwords = nil
		return
	}
	def.NoPass = false
	def.Passwords = []string{HashPassword(password)}
}

// RequiresAuth reports whether the default user cannot be used without
// credentials, i.e. fresh connections must AUTH first.
func (a *ACL) RequiresAuth() bool {
	def := a.Default()
	return !def.On || !def.NoPass
}
