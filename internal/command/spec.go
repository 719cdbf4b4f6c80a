package command

import (
	"strings"

	"github.com/yndnr/keymesh-go/internal/acl"
)

// Flag is a command attribute bit.
type Flag uint32

const (
	// FlagWrite marks commands that may mutate the keyspace.
	FlagWrite Flag = 1 << iota
	// FlagReadonly marks pure readers.
	FlagReadonly
	// FlagAdmin marks administrative commands.
	FlagAdmin
	// FlagPubSub marks commands legal in subscriber mode.
	FlagPubSub
	// FlagNoScript marks commands scripts may not call.
	FlagNoScript
	// FlagLoading marks commands allowed while loading.
	FlagLoading
	// FlagStale marks commands allowed on stale replicas.
	FlagStale
	// FlagFast marks O(1)-ish commands.
	FlagFast
	// FlagBlocking marks commands that may park the session.
	FlagBlocking
	// FlagMovableKeys marks commands whose key positions need the
	// KeyFinder callback.
	FlagMovableKeys
	// FlagPreAuth marks commands runnable before authentication.
	FlagPreAuth
	// FlagTxCtl marks transaction-control commands that bypass queueing.
	FlagTxCtl
)

// Has reports whether all given bits are set.
func (f Flag) Has(bits Flag) bool { return f&bits == bits }

// KeyRef locates one key argument and the access it needs.
type KeyRef struct {
	Pos  int
	Mode acl.KeyMode
}

// Spec is the static description of one command.
type Spec struct {
	// Name is the lowercase command name; container commands such as
	// "client kill" use the parent name here with subcommand dispatch
	// done by the handler.
	Name string

	// Arity follows the upstream convention: positive means exactly
	// that many arguments including the command name; negative means
	// at least -Arity.
	Arity int

	Flags      Flag
	Categories []string

	// FirstKey/LastKey/KeyStep describe fixed key positions, 1-based
	// over the full argument vector; LastKey -1 means "through the
	// end". Zero FirstKey means no keys.
	FirstKey, LastKey, KeyStep int

	// KeyMode is the access fixed-position keys need.
	KeyMode acl.KeyMode

	// KeyFinder extracts key references for movable-keys commands.
	KeyFinder func(args [][]byte) []KeyRef
}

// CheckArity reports whether an argument count satisfies the rule.
func (s *Spec) CheckArity(argc int) bool {
	if s.Arity >= 0 {
		return argc == s.Arity
	}
	return argc >= -s.Arity
}

// Keys returns the key references for a concrete argument vector.
func (s *Spec) Keys(args [][]byte) []KeyRef {
	if s.KeyFinder != nil {
		return s.KeyFinder(args)
	}
	if s.FirstKey <= 0 {
		return nil
	}
	last := s.LastKey
	if last < 0 {
		last = len(args) + last
	}
	step := s.KeyStep
	if step <= 0 {
		step = 1
	}
	var refs []KeyRef
	for pos := s.FirstKey; pos <= last && pos < len(args); pos += step {
		refs = append(refs, KeyRef{Pos: pos, Mode: s.KeyMode})
	}
	return refs
}

// Registry is the command table.
type Registry struct {
	specs      map[string]*Spec
	categories map[string]map[string]bool // category -> command set
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:      make(map[string]*Spec),
		categories: make(map[string]map[string]bool),
	}
}

// Register adds a spec. Registering a duplicate name panics; the table
// is assembled once at init.
func (r *Registry) Register(s *Spec) *Spec {
	name := strings.ToLower(s.Name)
	if _, dup := r.specs[name]; dup {
		panic("command: duplicate spec " + name)
	}
	s.Name = name
	if s.Flags.Has(FlagWrite) && s.KeyMode == 0 {
		s.KeyMode = acl.KeyReadWrite
	} else if s.KeyMode == 0 {
		s.KeyMode = acl.KeyRead
	}
	r.specs[name] = s
	for _, cat := range s.Categories {
		set, ok := r.categories[cat]
		if !ok {
			set = make(map[string]bool)
			r.categories[cat] = set
		}
		set[name] = true
	}
	return s
}

// Lookup resolves a command name case-insensitively.
func (r *Registry) Lookup(name string) (*Spec, bool) {
	s, ok := r.specs[strings.ToLower(name)]
	return s, ok
}

// Count returns the number of registered commands.
func (r *Registry) Count() int { return len(r.specs) }

// Names returns all registered command names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	return names
}

// CommandInCategory implements acl.CategoryLookup.
func (r *Registry) CommandInCategory(command, category string) bool {
	// "client|kill" style names fall back to the parent command.
	if i := strings.IndexByte(command, '|'); i >= 0 {
		command = command[:i]
	}
	return r.categories[category][command]
}

// CategoryExists implements acl.CategoryLookup.
func (r *Registry) CategoryExists(category string) bool {
	_, ok := r.categories[category]
	return ok
}

// Categories returns the known category names.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.categories))
	for c := range r.categories {
		out = append(out, c)
	}
	return out
}

// CategoryCommands returns the commands in one category.
func (r *Registry) CategoryCommands(category string) []string {
	out := make([]string, 0, len(r.categories[category]))
	for c := range r.categories[category] {
		out = append(out, c)
	}
	return out
}
