package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/deepdelve/roguecore/internal/core/event"
	coresys "github.com/deepdelve/roguecore/internal/core/system"
	"github.com/deepdelve/roguecore/internal/datum"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Engine wraps a single gopher-lua VM that lets scripts observe events and
// answer requests by channel name. Single-goroutine access only (game loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	routes coresys.RouteTable
	data   *datum.Registry

	subs       map[int]*event.Subscription
	nextHandle int
}

// NewEngine creates a Lua engine bound to routes and data, then loads all
// scripts from dir. An empty dir loads nothing.
func NewEngine(dir string, routes coresys.RouteTable, data *datum.Registry, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{
		vm:     vm,
		log:    log.Named("lua"),
		routes: routes,
		data:   data,
		subs:   make(map[int]*event.Subscription),
	}
	e.register()

	if dir == "" {
		return e, nil
	}
	// Core helpers first, then rules that may use them.
	for _, d := range []string{filepath.Join(dir, "core"), dir, filepath.Join(dir, "rules")} {
		if err := e.loadDir(d); err != nil {
			e.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Exec runs a chunk of Lua source in the engine's VM.
func (e *Engine) Exec(src string) error {
	return e.vm.DoString(src)
}

// Subscriptions returns the number of live script handlers.
func (e *Engine) Subscriptions() int { return len(e.subs) }

func (e *Engine) register() {
	e.vm.SetGlobal("on", e.vm.NewFunction(e.luaOn))
	e.vm.SetGlobal("off", e.vm.NewFunction(e.luaOff))
	e.vm.SetGlobal("datum", e.vm.NewFunction(e.luaDatum))
	e.vm.SetGlobal("set_datum", e.vm.NewFunction(e.luaSetDatum))
	e.vm.SetGlobal("log", e.vm.NewFunction(e.luaLog))
}

// on(system, name, fn [, priority]) -> handle
func (e *Engine) luaOn(L *lua.LState) int {
	system := L.CheckString(1)
	name := L.CheckString(2)
	fn := L.CheckFunction(3)
	priority := L.OptInt(4, 0)

	route, ok := e.routes.LookupName(system, name)
	if !ok {
		L.RaiseError("on: unknown channel %s.%s", system, name)
		return 0
	}
	ch := route.Channel()
	sub := route.SubscribeScript(func(fields map[string]any) event.EventResult {
		return e.call(ch, fn, fields)
	}, event.WithPriority(priority))

	e.nextHandle++
	e.subs[e.nextHandle] = sub
	L.Push(lua.LNumber(e.nextHandle))
	return 1
}

// off(handle) -> bool
func (e *Engine) luaOff(L *lua.LState) int {
	h := L.CheckInt(1)
	sub, ok := e.subs[h]
	if ok {
		sub.Dispose()
		delete(e.subs, h)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// datum(name) -> number | nil
func (e *Engine) luaDatum(L *lua.LState) int {
	v, ok := e.data.Get(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v))
	return 1
}

// set_datum(name, value)
func (e *Engine) luaSetDatum(L *lua.LState) int {
	name := L.CheckString(1)
	v := L.CheckInt64(2)
	if err := e.data.Set(name, v); err != nil {
		L.RaiseError("set_datum: %s", err.Error())
	}
	return 0
}

// log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}

// call invokes a script handler. A boolean return is the handler's answer;
// nil or anything else abstains. A script error counts as a rejection.
func (e *Engine) call(ch event.Channel, fn *lua.LFunction, fields map[string]any) event.EventResult {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.toTable(fields)); err != nil {
		e.log.Error("lua handler error", zap.Stringer("channel", ch), zap.Error(err))
		return event.Rejected
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if b, ok := result.(lua.LBool); ok {
		return event.FromBool(bool(b))
	}
	return event.NoResponse
}

func (e *Engine) toTable(fields map[string]any) *lua.LTable {
	t := e.vm.NewTable()
	for k, v := range fields {
		t.RawSetString(k, e.toValue(v))
	}
	return t
}

func (e *Engine) toValue(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		return e.toTable(x)
	case fmt.Stringer:
		return lua.LString(x.String())
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// Close disposes every script subscription and shuts down the Lua VM.
func (e *Engine) Close() {
	for h, sub := range e.subs {
		sub.Dispose()
		delete(e.subs, h)
	}
	e.vm.Close()
}
