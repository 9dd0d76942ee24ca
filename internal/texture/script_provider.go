package texture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"glyphcaster/internal/glyph"
	"glyphcaster/internal/logging"
	"glyphcaster/internal/world"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
)

// ErrScriptClosed is returned after Close.
var ErrScriptClosed = errors.New("texture script is closed")

// scriptFunc is the global the script must define:
//
//	function texture(key, width, height, instructions, light)
//	  return { rows = {...}, fg = "#rrggbb", bg = "#rrggbb", mode = "tile" }
//	end
//
// Returning nil declines the key.
const scriptFunc = "texture"

const defaultScriptTimeout = 50 * time.Millisecond

// ScriptProvider generates textures from a sandboxed Lua script. The Lua
// state is not goroutine-safe; every call is serialised.
type ScriptProvider struct {
	mu      sync.Mutex
	L       *lua.LState
	closed  bool
	timeout time.Duration

	darkFactor float64
	cache      *Cache
	log        *logrus.Entry
}

// NewScriptProvider loads a script from source.
func NewScriptProvider(name, source string) (*ScriptProvider, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	sp := &ScriptProvider{
		L:          L,
		timeout:    defaultScriptTimeout,
		darkFactor: DefaultDarkFactor,
		cache:      NewCache(),
		log:        logging.For("texture_script").WithField("script", name),
	}
	if err := sp.protect(func() error { return L.DoString(source) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load texture script %s: %w", name, err)
	}
	if fn := L.GetGlobal(scriptFunc); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("texture script %s does not define function %q", name, scriptFunc)
	}
	return sp, nil
}

// LoadScriptProvider reads the script from a file.
func LoadScriptProvider(path string) (*ScriptProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read texture script: %w", err)
	}
	return NewScriptProvider(path, string(data))
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base helpers that reach the file system
	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (sp *ScriptProvider) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the Lua state.
func (sp *ScriptProvider) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.closed {
		return nil
	}
	sp.closed = true
	sp.L.Close()
	return nil
}

// Texture implements Provider.
func (sp *ScriptProvider) Texture(key string, width, height int, tile *world.EntryInfo, light bool) Texture {
	if width <= 0 || height <= 0 {
		return nil
	}
	instructions := ""
	if tile != nil {
		instructions = tile.TextureInstructions()
	}

	ck := CacheKey{Key: key + "\x00" + instructions, Width: width, Height: height, Light: light}
	return sp.cache.GetOrCreate(ck, func() Texture {
		tex, err := sp.generate(key, width, height, instructions, light)
		if err != nil {
			sp.log.WithError(err).WithField("key", key).Warn("texture script failed")
			return nil
		}
		return tex
	})
}

func (sp *ScriptProvider) generate(key string, width, height int, instructions string, light bool) (Texture, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.closed {
		return nil, ErrScriptClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), sp.timeout)
	defer cancel()
	sp.L.SetContext(ctx)
	defer sp.L.RemoveContext()

	err := sp.protect(func() error {
		return sp.L.CallByParam(lua.P{
			Fn:      sp.L.GetGlobal(scriptFunc),
			NRet:    1,
			Protect: true,
		}, lua.LString(key), lua.LNumber(width), lua.LNumber(height), lua.LString(instructions), lua.LBool(light))
	})
	if err != nil {
		return nil, err
	}
	ret := sp.L.Get(-1)
	sp.L.Pop(1)

	if ret == lua.LNil {
		return nil, nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("expected a table, got %s", ret.Type())
	}
	return sp.textureFromTable(tbl, width, height, light)
}

func (sp *ScriptProvider) textureFromTable(tbl *lua.LTable, width, height int, light bool) (Texture, error) {
	rowsVal, ok := tbl.RawGetString("rows").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("result has no rows table")
	}
	var rows []string
	rowsVal.ForEach(func(_, v lua.LValue) {
		rows = append(rows, lua.LVAsString(v))
	})

	fg, err := glyph.Hex(lua.LVAsString(tbl.RawGetString("fg")))
	if err != nil {
		return nil, err
	}
	bg, err := glyph.Hex(lua.LVAsString(tbl.RawGetString("bg")))
	if err != nil {
		return nil, err
	}
	mode, err := ParseMode(lua.LVAsString(tbl.RawGetString("mode")))
	if err != nil {
		return nil, err
	}

	p, err := NewPattern(rows, fg, bg)
	if err != nil {
		return nil, err
	}
	tex := Resolve(p, mode, width, height)
	if !light {
		tex = Shade(tex, sp.darkFactor)
	}
	return tex, nil
}
