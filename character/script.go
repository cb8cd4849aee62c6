package character

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/footsim/prefabs"
)

// Script is a compiled mob script. It must define
// choose(engine, state), returning an action name or "" to leave the pick to
// the random selector. state persists between calls.
type Script struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
}

const mobDispatchScript = `
if __phase == "choose" {
	__choice = choose(__engine, __state)
}
`

// LoadScript compiles the named script from the prefabs scripts directory.
func LoadScript(name string) (*Script, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, err
	}
	return CompileScript(name, src)
}

func CompileScript(name string, src []byte) (*Script, error) {
	script := tengo.NewScript([]byte(string(src) + "\n" + mobDispatchScript))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__choice", "")
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("character: compile %s: %w", name, err)
	}
	s := &Script{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}
	noop := &tengo.ImmutableMap{Value: map[string]tengo.Object{}}
	if err := s.run("noop", noop); err != nil {
		return nil, fmt.Errorf("character: run %s: %w", name, err)
	}
	if !compiled.IsDefined("choose") {
		return nil, fmt.Errorf("character: %s does not define choose", name)
	}
	return s, nil
}

func (s *Script) Name() string {
	return s.name
}

// Choose asks the script for the next action of c.
func (s *Script) Choose(c *Controller, b *MobBehavior) (ActionKind, bool, error) {
	if err := s.run("choose", buildScriptEngine(c, b)); err != nil {
		return 0, false, err
	}
	name := strings.TrimSpace(s.compiled.Get("__choice").String())
	if name == "" {
		return 0, false, nil
	}
	kind, err := ParseActionKind(name)
	if err != nil {
		return 0, false, err
	}
	return kind, true, nil
}

func (s *Script) run(phase string, engine *tengo.ImmutableMap) error {
	if err := s.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := s.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := s.compiled.Set("__state", s.state); err != nil {
		return err
	}
	if err := s.compiled.Set("__choice", ""); err != nil {
		return err
	}
	return s.compiled.Run()
}

func buildScriptEngine(c *Controller, b *MobBehavior) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["get_position"] = &tengo.UserFunction{Name: "get_position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		pos := c.Position()
		return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: pos.X}, &tengo.Float{Value: pos.Y}}}, nil
	}}

	values["get_velocity"] = &tengo.UserFunction{Name: "get_velocity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		v := c.Velocity()
		return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}, nil
	}}

	values["airborne"] = &tengo.UserFunction{Name: "airborne", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return boolObject(!c.Grounded()), nil
	}}

	values["attacking"] = &tengo.UserFunction{Name: "attacking", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return boolObject(b.Attacking()), nil
	}}

	values["facing"] = &tengo.UserFunction{Name: "facing", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(c.state.Facing)}, nil
	}}

	values["foothold"] = &tengo.UserFunction{Name: "foothold", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(c.feet.CommittedID())}, nil
	}}

	values["can"] = &tengo.UserFunction{Name: "can", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		kind, err := ParseActionKind(objectAsString(args[0]))
		if err != nil {
			return tengo.FalseValue, nil
		}
		for i := range b.Actions {
			if b.Actions[i].Kind == kind && b.Actions[i].Valid(c, b) {
				return tengo.TrueValue, nil
			}
		}
		return tengo.FalseValue, nil
	}}

	values["region"] = &tengo.UserFunction{Name: "region", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if b.Region == nil {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: b.Region.MinX}, &tengo.Float{Value: b.Region.MaxX}}}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if s, ok := obj.(*tengo.String); ok {
		return s.Value
	}
	if obj == nil {
		return ""
	}
	return obj.String()
}
