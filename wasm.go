//go:build js && wasm

package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/cottand/tyck/cmd"
	"github.com/cottand/tyck/internal/fixture"
)

func main() {
	js.Global().Set("CheckScenario", js.FuncOf(checkScenario))
	js.Global().Set("ScenarioNames", js.FuncOf(func(js.Value, []js.Value) any {
		return strings.Join(fixture.Names(), ",")
	}))

	// wait indefinitely so that Go does not terminate execution
	// and the functions remain available
	<-make(chan struct{})
}

// checkScenario checks the scenario named by its first argument and returns
// its errors and permanent tables as text
func checkScenario(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "checker panicked: " + fmt.Sprint(r)
		}
	}()
	if len(args) != 1 {
		return "expected the name of one scenario"
	}
	u := fixture.NewUniverse()
	s, ok := fixture.Lookup(u, args[0].String())
	if !ok {
		return "unknown scenario, expected one of " + strings.Join(fixture.Names(), ", ")
	}
	res := fixture.Check(u, s.Unit)
	sb := &strings.Builder{}
	cmd.PrintResult(sb, res)
	if res.Err != nil {
		sb.WriteString("checking aborted: " + res.Err.Error() + "\n")
	}
	return sb.String()
}
