package fixture

import (
	"testing"

	"github.com/cottand/tyck/ilerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"ambiguous", "closure", "inherent", "object", "operators", "reconcile"}, Names())
	_, ok := Lookup(NewUniverse(), "missing")
	assert.False(t, ok)
}

func TestScenariosCheck(t *testing.T) {
	wantCodes := map[string][]ilerr.ErrCode{
		"ambiguous": {ilerr.CannotDetermineLocal},
	}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			u := NewUniverse()
			s, ok := Lookup(u, name)
			require.True(t, ok)
			res := Check(u, s.Unit)
			require.NoError(t, res.Err)
			assert.Equal(t, wantCodes[name], res.Session.Errors.Codes())
			for node := range s.Nodes {
				assert.NotPanics(t, func() { s.Node(node) })
			}
		})
	}
}

func TestNodePanicsOnUnknownName(t *testing.T) {
	s := Inherent(NewUniverse())
	assert.PanicsWithValue(t, "fixture: scenario inherent has no node nope", func() { s.Node("nope") })
}
