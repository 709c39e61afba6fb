package state

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnboundTrigger = errors.New("trigger not bound to current state")
	ErrUnknownState   = errors.New("unknown state")
	ErrNoRelation     = errors.New("relation does not resolve")
	ErrEnterFailed    = errors.New("enter failed")
	ErrInvalidNode    = errors.New("invalid state node")
)

// NodeID identifies a node in the manager's tree.
type NodeID int

const NoNode NodeID = -1

// Trigger names a discrete signal matched against the current node.
type Trigger string

// Relation locates a transition target relative to the current node.
type Relation int

const (
	RelNone Relation = iota
	RelChild
	RelSibling
	RelSiblingElseUp
	RelSame
	RelParent
)

func (r Relation) String() string {
	switch r {
	case RelNone:
		return "none"
	case RelChild:
		return "child"
	case RelSibling:
		return "sibling"
	case RelSiblingElseUp:
		return "siblingElseUp"
	case RelSame:
		return "same"
	case RelParent:
		return "parent"
	}
	return "unknown"
}

// Action runs on the state being left or entered.
type Action func(ctx context.Context, s *State, t Trigger, m *Manager) error

// Transition binds a trigger on one node. Exactly one of Rel and Target
// selects the next node; Target is an alias.
type Transition struct {
	Trigger Trigger
	Exit    Action
	Enter   Action
	Rel     Relation
	Target  string
}

type AddOptions struct {
	Aliases     []string
	Children    []string // aliases of nodes added earlier
	Transitions []Transition
}

// TriggerEvent is passed to the observers.
type TriggerEvent struct {
	Trigger Trigger
	OldID   NodeID
	NewID   NodeID
	Old     *State
	New     *State
}

type Observer func(TriggerEvent)

type Options struct {
	PreTrigger  Observer
	PostTrigger Observer
}

type node struct {
	state       *State
	parent      NodeID
	children    []NodeID
	transitions map[Trigger]Transition
}

// Manager holds a forest of states and moves the current pointer in
// response to triggers. It is not safe for concurrent use; Trigger may be
// called again from inside an exit or enter action.
type Manager struct {
	opts    Options
	nodes   []*node
	aliases map[string]NodeID
	current NodeID
}

func NewManager(opts Options) *Manager {
	return &Manager{
		opts:    opts,
		aliases: make(map[string]NodeID),
		current: NoNode,
	}
}

// Add registers s with its aliases, children and transitions.
func (m *Manager) Add(s *State, opts AddOptions) (NodeID, error) {
	seen := make(map[string]bool, len(opts.Aliases))
	for _, a := range opts.Aliases {
		if _, dup := m.aliases[a]; dup || seen[a] || a == "" {
			return NoNode, fmt.Errorf("%w: alias %q already in use", ErrInvalidNode, a)
		}
		seen[a] = true
	}
	children := make([]NodeID, 0, len(opts.Children))
	for _, ref := range opts.Children {
		id, err := m.Lookup(ref)
		if err != nil {
			return NoNode, err
		}
		if m.nodes[id].parent != NoNode {
			return NoNode, fmt.Errorf("%w: %q already has a parent", ErrInvalidNode, ref)
		}
		children = append(children, id)
	}
	bindings := make(map[Trigger]Transition, len(opts.Transitions))
	for _, tr := range opts.Transitions {
		if _, dup := bindings[tr.Trigger]; dup {
			return NoNode, fmt.Errorf("%w: trigger %q bound twice on %s", ErrInvalidNode, tr.Trigger, s.Name())
		}
		if (tr.Rel == RelNone) == (tr.Target == "") {
			return NoNode, fmt.Errorf("%w: trigger %q on %s needs exactly one of relation and target", ErrInvalidNode, tr.Trigger, s.Name())
		}
		bindings[tr.Trigger] = tr
	}

	id := NodeID(len(m.nodes))
	m.nodes = append(m.nodes, &node{
		state:       s,
		parent:      NoNode,
		children:    children,
		transitions: bindings,
	})
	for _, c := range children {
		m.nodes[c].parent = id
	}
	for _, a := range opts.Aliases {
		m.aliases[a] = id
	}
	return id, nil
}

// Set moves the current pointer without running any transition.
func (m *Manager) Set(ref string) error {
	id, err := m.Lookup(ref)
	if err != nil {
		return err
	}
	m.current = id
	return nil
}

// SetID is Set for a node id, so nodes added without aliases can be made
// current too.
func (m *Manager) SetID(id NodeID) error {
	if m.State(id) == nil {
		return fmt.Errorf("%w: node %d", ErrUnknownState, id)
	}
	m.current = id
	return nil
}

// Trigger runs the transition bound to t on the current node: pre observer,
// exit of the old state, pointer swap, enter of the new state, post
// observer. A failed enter leaves the pointer on the new node and returns
// ErrEnterFailed.
func (m *Manager) Trigger(ctx context.Context, t Trigger) error {
	if m.current == NoNode {
		return fmt.Errorf("trigger %q: %w: no current state", t, ErrUnknownState)
	}
	cur := m.nodes[m.current]
	tr, ok := cur.transitions[t]
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrUnboundTrigger, t, cur.state.Name())
	}
	target, err := m.resolve(m.current, tr)
	if err != nil {
		return fmt.Errorf("trigger %q on %s: %w", t, cur.state.Name(), err)
	}

	ev := TriggerEvent{
		Trigger: t,
		OldID:   m.current,
		NewID:   target,
		Old:     cur.state,
		New:     m.nodes[target].state,
	}
	if m.opts.PreTrigger != nil {
		m.opts.PreTrigger(ev)
	}
	if tr.Exit != nil {
		if err := tr.Exit(ctx, ev.Old, t, m); err != nil {
			return fmt.Errorf("exit %s: %w", ev.Old.Name(), err)
		}
	}
	m.current = target
	if tr.Enter != nil {
		if err := tr.Enter(ctx, ev.New, t, m); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEnterFailed, ev.New.Name(), err)
		}
	}
	if m.opts.PostTrigger != nil {
		m.opts.PostTrigger(ev)
	}
	return nil
}

func (m *Manager) resolve(from NodeID, tr Transition) (NodeID, error) {
	if tr.Target != "" {
		return m.Lookup(tr.Target)
	}
	n := m.nodes[from]
	switch tr.Rel {
	case RelChild:
		if len(n.children) == 0 {
			return NoNode, fmt.Errorf("%w: %s has no children", ErrNoRelation, n.state.Name())
		}
		return n.children[0], nil
	case RelSibling, RelSiblingElseUp:
		if next, ok := m.nextSibling(from); ok {
			return next, nil
		}
		if tr.Rel == RelSiblingElseUp && n.parent != NoNode {
			return n.parent, nil
		}
		return NoNode, fmt.Errorf("%w: %s has no next sibling", ErrNoRelation, n.state.Name())
	case RelSame:
		return from, nil
	case RelParent:
		if n.parent == NoNode {
			return NoNode, fmt.Errorf("%w: %s has no parent", ErrNoRelation, n.state.Name())
		}
		return n.parent, nil
	}
	return NoNode, fmt.Errorf("%w: %s", ErrNoRelation, tr.Rel)
}

func (m *Manager) nextSibling(id NodeID) (NodeID, bool) {
	p := m.nodes[id].parent
	if p == NoNode {
		return NoNode, false
	}
	sibs := m.nodes[p].children
	for i, c := range sibs {
		if c == id && i+1 < len(sibs) {
			return sibs[i+1], true
		}
	}
	return NoNode, false
}

// Lookup resolves an alias to a node.
func (m *Manager) Lookup(ref string) (NodeID, error) {
	id, ok := m.aliases[ref]
	if !ok {
		return NoNode, fmt.Errorf("%w: %q", ErrUnknownState, ref)
	}
	return id, nil
}

// At resolves an alias to its state.
func (m *Manager) At(ref string) (*State, error) {
	id, err := m.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return m.nodes[id].state, nil
}

// State returns the state of a node, or nil for an unknown id.
func (m *Manager) State(id NodeID) *State {
	if id < 0 || int(id) >= len(m.nodes) {
		return nil
	}
	return m.nodes[id].state
}

// Current returns the current state, or nil before Set.
func (m *Manager) Current() *State { return m.State(m.current) }

func (m *Manager) CurrentID() NodeID { return m.current }

func (m *Manager) Parent(id NodeID) (NodeID, bool) {
	if m.State(id) == nil || m.nodes[id].parent == NoNode {
		return NoNode, false
	}
	return m.nodes[id].parent, true
}

func (m *Manager) Children(id NodeID) []NodeID {
	if m.State(id) == nil {
		return nil
	}
	out := make([]NodeID, len(m.nodes[id].children))
	copy(out, m.nodes[id].children)
	return out
}

// DestroyAll destroys every state, most recently added first.
func (m *Manager) DestroyAll() {
	for i := len(m.nodes) - 1; i >= 0; i-- {
		m.nodes[i].state.Destroy()
	}
}
