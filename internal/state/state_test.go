package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls   []string
	failOn  string
	preload int
}

func (r *recorder) step(name string) error {
	r.calls = append(r.calls, name)
	if name == r.failOn {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Preload(context.Context) error { r.preload++; return r.step("preload") }
func (r *recorder) Init(context.Context) error    { return r.step("init") }
func (r *recorder) Deinit()                       { _ = r.step("deinit") }
func (r *recorder) Start(context.Context) error   { return r.step("start") }
func (r *recorder) Stop()                         { _ = r.step("stop") }
func (r *recorder) Attach(context.Context) error  { return r.step("attach") }
func (r *recorder) Detach()                       { _ = r.step("detach") }

func TestLifecycleRunsPrerequisitesOnce(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	s := New("S", r)

	require.NoError(t, Resume(ctx, s))
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, []string{"preload", "init", "start", "attach"}, r.calls)
	assert.True(t, s.Started())
	assert.True(t, s.Attached())
	assert.Equal(t, Initialized, s.Stage())

	r.calls = nil
	Reset(s)
	assert.Equal(t, []string{"stop", "detach"}, r.calls)
	assert.Equal(t, Initialized, s.Stage())

	r.calls = nil
	require.NoError(t, s.Start(ctx))
	s.Deinit()
	assert.Equal(t, []string{"start", "stop", "deinit"}, r.calls)
	assert.Equal(t, Preloaded, s.Stage())

	require.NoError(t, s.Init(ctx))
	assert.Equal(t, 1, r.preload, "preloaded data is kept across deinit")

	s.Destroy()
	assert.True(t, s.Destroyed())
	assert.ErrorIs(t, s.Start(ctx), ErrDestroyed)
	assert.ErrorIs(t, s.Preload(ctx), ErrDestroyed)
	s.Destroy()
}

func TestLifecycleErrorsPropagate(t *testing.T) {
	r := &recorder{failOn: "preload"}
	s := New("S", r)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, Created, s.Stage())
	assert.False(t, s.Started())
}

func TestPlainStateIsNoop(t *testing.T) {
	s := New("Root", nil)
	require.NoError(t, Resume(context.Background(), s))
	assert.True(t, s.Attached())
}

type tree struct {
	m   *Manager
	log []string
}

func (tr *tree) action(tag string) Action {
	return func(_ context.Context, s *State, _ Trigger, _ *Manager) error {
		tr.log = append(tr.log, tag+":"+s.Name())
		return nil
	}
}

func TestSiblingTransition(t *testing.T) {
	tr := &tree{}
	tr.m = NewManager(Options{
		PreTrigger:  func(ev TriggerEvent) { tr.log = append(tr.log, "pre") },
		PostTrigger: func(ev TriggerEvent) { tr.log = append(tr.log, "post") },
	})
	next := Transition{Trigger: "T", Exit: tr.action("exit"), Enter: tr.action("enter"), Rel: RelSibling}
	_, err := tr.m.Add(New("A", nil), AddOptions{Aliases: []string{"A"}, Transitions: []Transition{next}})
	require.NoError(t, err)
	_, err = tr.m.Add(New("B", nil), AddOptions{Aliases: []string{"B"}, Transitions: []Transition{next}})
	require.NoError(t, err)
	_, err = tr.m.Add(New("P", nil), AddOptions{Aliases: []string{"P"}, Children: []string{"A", "B"}})
	require.NoError(t, err)

	require.NoError(t, tr.m.Set("A"))
	require.NoError(t, tr.m.Trigger(context.Background(), "T"))
	assert.Equal(t, "B", tr.m.Current().Name())
	assert.Equal(t, []string{"pre", "exit:A", "enter:B", "post"}, tr.log)

	err = tr.m.Trigger(context.Background(), "T")
	assert.ErrorIs(t, err, ErrNoRelation, "plain sibling does not bubble up")
	assert.Equal(t, "B", tr.m.Current().Name())
}

func TestSiblingElseUpResolvesToParent(t *testing.T) {
	m := NewManager(Options{})
	up := Transition{Trigger: "T", Rel: RelSiblingElseUp}
	_, err := m.Add(New("A", nil), AddOptions{Aliases: []string{"A"}, Transitions: []Transition{up}})
	require.NoError(t, err)
	pid, err := m.Add(New("P", nil), AddOptions{Aliases: []string{"P"}, Children: []string{"A"}})
	require.NoError(t, err)

	require.NoError(t, m.Set("A"))
	require.NoError(t, m.Trigger(context.Background(), "T"))
	assert.Equal(t, pid, m.CurrentID())
}

func TestRelations(t *testing.T) {
	m := NewManager(Options{})
	_, err := m.Add(New("C1", nil), AddOptions{Aliases: []string{"C1"}, Transitions: []Transition{
		{Trigger: "up", Rel: RelParent},
		{Trigger: "again", Rel: RelSame},
		{Trigger: "jump", Target: "Far"},
	}})
	require.NoError(t, err)
	_, err = m.Add(New("C2", nil), AddOptions{Aliases: []string{"C2"}})
	require.NoError(t, err)
	_, err = m.Add(New("P", nil), AddOptions{Aliases: []string{"P"}, Children: []string{"C1", "C2"}, Transitions: []Transition{
		{Trigger: "down", Rel: RelChild},
	}})
	require.NoError(t, err)
	_, err = m.Add(New("Far", nil), AddOptions{Aliases: []string{"Far"}})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, m.Set("P"))
	require.NoError(t, m.Trigger(ctx, "down"))
	assert.Equal(t, "C1", m.Current().Name())
	require.NoError(t, m.Trigger(ctx, "again"))
	assert.Equal(t, "C1", m.Current().Name())
	require.NoError(t, m.Trigger(ctx, "up"))
	assert.Equal(t, "P", m.Current().Name())
	require.NoError(t, m.Set("C1"))
	require.NoError(t, m.Trigger(ctx, "jump"))
	assert.Equal(t, "Far", m.Current().Name())

	p, _ := m.Lookup("P")
	c1, _ := m.Lookup("C1")
	assert.Len(t, m.Children(p), 2)
	parent, ok := m.Parent(c1)
	assert.True(t, ok)
	assert.Equal(t, p, parent)
}

func TestUnboundTriggerFailsFast(t *testing.T) {
	m := NewManager(Options{})
	_, err := m.Add(New("A", nil), AddOptions{Aliases: []string{"A"}})
	require.NoError(t, err)
	_, err = m.Add(New("P", nil), AddOptions{Aliases: []string{"P"}, Children: []string{"A"}, Transitions: []Transition{
		{Trigger: "T", Rel: RelChild},
	}})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Trigger(context.Background(), "T"), ErrUnknownState, "no current state yet")
	require.NoError(t, m.Set("A"))
	assert.ErrorIs(t, m.Trigger(context.Background(), "T"), ErrUnboundTrigger, "parent bindings are not inherited")
	assert.ErrorIs(t, m.Set("Nope"), ErrUnknownState)
	_, err = m.At("Nope")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestAddValidation(t *testing.T) {
	m := NewManager(Options{})
	_, err := m.Add(New("A", nil), AddOptions{Aliases: []string{"A"}})
	require.NoError(t, err)

	_, err = m.Add(New("A2", nil), AddOptions{Aliases: []string{"A"}})
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, err = m.Add(New("P", nil), AddOptions{Children: []string{"missing"}})
	assert.ErrorIs(t, err, ErrUnknownState)
	_, err = m.Add(New("P", nil), AddOptions{Transitions: []Transition{{Trigger: "T"}}})
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, err = m.Add(New("P", nil), AddOptions{Transitions: []Transition{
		{Trigger: "T", Rel: RelSame},
		{Trigger: "T", Rel: RelParent},
	}})
	assert.ErrorIs(t, err, ErrInvalidNode)

	_, err = m.Add(New("P1", nil), AddOptions{Children: []string{"A"}})
	require.NoError(t, err)
	_, err = m.Add(New("P2", nil), AddOptions{Children: []string{"A"}})
	assert.ErrorIs(t, err, ErrInvalidNode, "one parent per node")
}

func TestReentrantTriggerFromEnter(t *testing.T) {
	var order []string
	m := NewManager(Options{
		PostTrigger: func(ev TriggerEvent) { order = append(order, "post:"+ev.New.Name()) },
	})
	_, err := m.Add(New("Leaf", nil), AddOptions{Aliases: []string{"Leaf"}})
	require.NoError(t, err)
	_, err = m.Add(New("Mid", nil), AddOptions{Aliases: []string{"Mid"}, Children: []string{"Leaf"}, Transitions: []Transition{{
		Trigger: "descend",
		Rel:     RelChild,
	}}})
	require.NoError(t, err)
	_, err = m.Add(New("Top", nil), AddOptions{Aliases: []string{"Top"}, Children: []string{"Mid"}, Transitions: []Transition{{
		Trigger: "play",
		Rel:     RelChild,
		Enter: func(ctx context.Context, s *State, _ Trigger, m *Manager) error {
			order = append(order, "enter:"+s.Name())
			return m.Trigger(ctx, "descend")
		},
	}}})
	require.NoError(t, err)

	require.NoError(t, m.Set("Top"))
	require.NoError(t, m.Trigger(context.Background(), "play"))
	assert.Equal(t, "Leaf", m.Current().Name())
	assert.Equal(t, []string{"enter:Mid", "post:Leaf", "post:Mid"}, order)
}

func TestEnterFailureIsReported(t *testing.T) {
	m := NewManager(Options{})
	_, err := m.Add(New("A", nil), AddOptions{Aliases: []string{"A"}, Transitions: []Transition{{
		Trigger: "T",
		Rel:     RelSame,
		Enter: func(context.Context, *State, Trigger, *Manager) error {
			return errors.New("no data")
		},
	}}})
	require.NoError(t, err)
	require.NoError(t, m.Set("A"))
	err = m.Trigger(context.Background(), "T")
	assert.ErrorIs(t, err, ErrEnterFailed)
	assert.Contains(t, err.Error(), "no data")
}

func TestDestroyAll(t *testing.T) {
	m := NewManager(Options{})
	a := New("A", nil)
	b := New("B", nil)
	_, _ = m.Add(a, AddOptions{})
	_, _ = m.Add(b, AddOptions{})
	m.DestroyAll()
	assert.True(t, a.Destroyed())
	assert.True(t, b.Destroyed())
}

func TestSetIDReachesUnaliasedNodes(t *testing.T) {
	m := NewManager(Options{})
	id, err := m.Add(New("Hidden", nil), AddOptions{Transitions: []Transition{{Trigger: "T", Target: "Named"}}})
	require.NoError(t, err)
	_, err = m.Add(New("Named", nil), AddOptions{Aliases: []string{"Named"}})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Set("Hidden"), ErrUnknownState)
	require.NoError(t, m.SetID(id))
	assert.Equal(t, "Hidden", m.Current().Name())

	require.NoError(t, m.Trigger(context.Background(), "T"))
	assert.Equal(t, "Named", m.Current().Name())

	assert.ErrorIs(t, m.SetID(42), ErrUnknownState)
	assert.ErrorIs(t, m.SetID(NoNode), ErrUnknownState)
	assert.Equal(t, "Named", m.Current().Name(), "failed SetID keeps the pointer")
}
