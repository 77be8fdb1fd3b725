package registry

import (
	"errors"
	"fmt"
)

// Error kinds. ErrConfigurationConflict aborts a build, as does a hook
// failure asking for OpCollapse. The others are logged, recorded in
// System.Events and isolated to the entity involved.
var (
	ErrConfigurationConflict = errors.New("configuration conflict")
	ErrUnresolvedManager     = errors.New("unresolved manager")
	ErrHookFailure           = errors.New("hook failure")
	ErrMutationAfterFreeze   = errors.New("mutation after freeze")
	ErrDuplicateBuild        = errors.New("duplicate build invocation")
	ErrExpansionLimit        = errors.New("expansion depth exceeded")
)

// Operation is what a build does with the entity whose hook failed.
type Operation int

const (
	// OpSkip records the failure and carries on. It is the default.
	OpSkip Operation = iota
	// OpAbandon drops the entity when it is not registered yet: a manager
	// that is still being created, a slot, automatic or default item before
	// collection, or an item in its awake-init hook. Elsewhere it acts as
	// OpSkip.
	OpAbandon
	// OpCollapse aborts the build after the failing hook.
	OpCollapse
)

var operationNames = map[Operation]string{
	OpSkip:     "skip",
	OpAbandon:  "abandon",
	OpCollapse: "collapse",
}

func (o Operation) String() string {
	if n, ok := operationNames[o]; ok {
		return n
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// Abandon wraps err so that a hook returning it gets its entity dropped.
func Abandon(err error) error { return &opError{op: OpAbandon, err: err} }

// Collapse wraps err so that a hook returning it aborts the build.
func Collapse(err error) error { return &opError{op: OpCollapse, err: err} }

type opError struct {
	op  Operation
	err error
}

func (e *opError) Error() string {
	if e.err == nil {
		return e.op.String()
	}
	return e.err.Error()
}

func (e *opError) Unwrap() error { return e.err }

// operationOf returns the operation err asks for.
func operationOf(err error) Operation {
	var oe *opError
	if errors.As(err, &oe) {
		return oe.op
	}
	return OpSkip
}

// Error describes a registry failure with the phase and entity it concerns.
// errors.Is matches both the Kind and the wrapped cause.
type Error struct {
	Kind   error
	Phase  Phase
	Entity string
	Err    error
	// Op is set on hook failures to the operation the hook asked for.
	Op Operation
}

func (e *Error) Error() string {
	msg := "registry: " + e.Kind.Error()
	if e.Phase != 0 {
		msg += " during " + e.Phase.String()
	}
	if e.Entity != "" {
		msg += fmt.Sprintf(" (%s)", e.Entity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Fatal reports whether the error aborts a build.
func (e *Error) Fatal() bool {
	return errors.Is(e.Kind, ErrConfigurationConflict) || e.Op == OpCollapse
}

func conflict(phase Phase, entity string, format string, args ...any) *Error {
	return &Error{Kind: ErrConfigurationConflict, Phase: phase, Entity: entity, Err: fmt.Errorf(format, args...)}
}
