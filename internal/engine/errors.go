package engine

import (
	"errors"
	"strings"

	"github.com/yndnr/keymesh-go/internal/acl"
	"github.com/yndnr/keymesh-go/internal/command"
	"github.com/yndnr/keymesh-go/internal/datatype"
	"github.com/yndnr/keymesh-go/internal/resp"
)

// Canonical error replies.
var (
	errNoAuth        = resp.ErrString("NOAUTH Authentication required.")
	errExecAbort     = resp.ErrString("EXECABORT Transaction discarded because of previous errors.")
	errUnblocked     = resp.ErrString("UNBLOCKED client unblocked via CLIENT UNBLOCK")
	errMultiNested   = resp.ErrString("ERR MULTI calls can not be nested")
	errExecNoMulti   = resp.ErrString("ERR EXEC without MULTI")
	errDiscardNoMulti = resp.ErrString("ERR DISCARD without MULTI")
	errWatchInMulti  = resp.ErrString("ERR WATCH inside MULTI is not allowed")
	errNoSuchKey     = resp.ErrString("ERR no such key")
	errSyntax        = resp.ErrString("ERR syntax error")
	errIndexRange    = resp.ErrString("ERR index out of range")
	errDBIndex       = resp.ErrString("ERR DB index is out of range")
	errTimeoutNeg    = resp.ErrString("ERR timeout is negative")
	errTimeoutFmt    = resp.ErrString("ERR timeout is not a float or out of range")
	errNotImplemented = resp.ErrString("ERR DUMP payload format is not implemented")
)

// suppressedReply is returned by handlers whose output already went out
// as push frames (the SUBSCRIBE family); the session writes nothing
// for it. It is the zero Value, which no handler produces otherwise.
var suppressedReply = resp.Value{}

func isSuppressed(v resp.Value) bool {
	return v.Kind == resp.KindSimpleString && v.Str == "" && v.Bulk == nil && v.Elems == nil
}

func errUnknownCommand(name string) resp.Value {
	return resp.Err("ERR", "unknown command '"+name+"'")
}

func errUnknownSubcommand(name, sub string) resp.Value {
	return resp.Err("ERR", "Unknown "+strings.ToUpper(name)+" subcommand or wrong number of arguments for '"+sub+"'")
}

func errWrongArgs(name string) resp.Value {
	return resp.Err("ERR", "wrong number of arguments for '"+strings.ToLower(name)+"' command")
}

func errNoPermCommand(user, cmd string) resp.Value {
	return resp.Err("NOPERM", "User "+user+" has no permissions to run the '"+strings.ToLower(cmd)+"' command")
}

func errNoPermKey(user string) resp.Value {
	return resp.Err("NOPERM", "No permissions to access a key")
}

func errNoPermChannel(user string) resp.Value {
	return resp.Err("NOPERM", "No permissions to access a channel")
}

// wireErr maps an operator or binding error onto its reply line.
func wireErr(err error) resp.Value {
	switch {
	case errors.Is(err, datatype.ErrWrongType):
		return resp.Err("WRONGTYPE", datatype.ErrWrongType.Error())
	case errors.Is(err, command.ErrSyntax):
		return errSyntax
	case errors.Is(err, command.ErrArgCount):
		return resp.Err("ERR", "wrong number of arguments")
	case errors.Is(err, acl.ErrAuthFailed):
		return resp.ErrString(acl.ErrAuthFailed.Error())
	}
	return resp.Err("ERR", err.Error())
}
