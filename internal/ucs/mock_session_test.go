package ucs

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"
)

// MockSession is a testify mock implementing the Session interface.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) QueryDN(ctx context.Context, dn string) (*ManagedObject, error) {
	args := m.Called(ctx, dn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ManagedObject), args.Error(1)
}

func (m *MockSession) AddMO(ctx context.Context, mo *ManagedObject, replace bool) error {
	args := m.Called(ctx, mo, replace)
	return args.Error(0)
}

func (m *MockSession) SetMO(ctx context.Context, mo *ManagedObject) error {
	args := m.Called(ctx, mo)
	return args.Error(0)
}

func (m *MockSession) RemoveMO(ctx context.Context, mo *ManagedObject) error {
	args := m.Called(ctx, mo)
	return args.Error(0)
}

func (m *MockSession) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// fakeSession is an in-memory Session backed by a DN-keyed object map, used
// where tests need real create/read/delete state transitions rather than
// canned expectations. Mutations are staged and applied on Commit like the
// real session.
type fakeSession struct {
	objects map[string]*ManagedObject
	staged  []fakeChange
	commits int
}

type fakeChange struct {
	mo      *ManagedObject
	op      string
	replace bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		objects: make(map[string]*ManagedObject),
	}
}

// seed places an object directly into the remote tree, bypassing staging.
func (f *fakeSession) seed(mo *ManagedObject) {
	f.objects[mo.DN] = mo.Clone()
}

func (f *fakeSession) QueryDN(_ context.Context, dn string) (*ManagedObject, error) {
	mo, ok := f.objects[dn]
	if !ok {
		return nil, nil
	}
	return mo.Clone(), nil
}

func (f *fakeSession) AddMO(_ context.Context, mo *ManagedObject, replace bool) error {
	f.staged = append(f.staged, fakeChange{mo: mo.Clone(), op: "add", replace: replace})
	return nil
}

func (f *fakeSession) SetMO(_ context.Context, mo *ManagedObject) error {
	f.staged = append(f.staged, fakeChange{mo: mo.Clone(), op: "set"})
	return nil
}

func (f *fakeSession) RemoveMO(_ context.Context, mo *ManagedObject) error {
	f.staged = append(f.staged, fakeChange{mo: mo.Clone(), op: "remove"})
	return nil
}

func (f *fakeSession) Commit(_ context.Context) error {
	for _, change := range f.staged {
		switch change.op {
		case "add":
			if _, exists := f.objects[change.mo.DN]; exists && !change.replace {
				return fmt.Errorf("object %s already exists", change.mo.DN)
			}
			f.objects[change.mo.DN] = change.mo
		case "set":
			existing, ok := f.objects[change.mo.DN]
			if !ok {
				return fmt.Errorf("object %s does not exist", change.mo.DN)
			}
			existing.MergeProps(change.mo.Props)
		case "remove":
			if _, ok := f.objects[change.mo.DN]; !ok {
				return fmt.Errorf("object %s does not exist", change.mo.DN)
			}
			delete(f.objects, change.mo.DN)
		}
	}
	f.staged = nil
	f.commits++
	return nil
}

const testBaseDN = "org-root/deviceprofile-default"

// seedLDAPExt seeds the ldap-ext container every provider create requires.
func (f *fakeSession) seedLDAPExt() {
	f.seed(NewManagedObject("aaaLdapEp", testBaseDN+"/ldap-ext"))
}
