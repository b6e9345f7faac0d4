package core

import (
	"fmt"

	wasmer "github.com/wasmerio/wasmer-go/wasmer"
)

// WasmScriptRunner executes registered filter scripts compiled to WASM,
// replacing jmzk's embedded Lua interpreter with a deterministic, sandboxed
// runtime (spec.md §4.5: "script(name)" authorizers). Each script must
// export a `check` function taking the signing-key count and returning an
// i32 (0 = false, 1 = true); a result outside {0,1} fails with
// InvalidScriptResult.
type WasmScriptRunner struct {
	store   *wasmer.Store
	modules map[string][]byte
}

func NewWasmScriptRunner() *WasmScriptRunner {
	return &WasmScriptRunner{
		store:   wasmer.NewStore(wasmer.NewEngine()),
		modules: make(map[string][]byte),
	}
}

// RegisterScript associates a script name with its compiled WASM module
// bytes, as found in the TokenTypeScript token record.
func (r *WasmScriptRunner) RegisterScript(name Name128, wasmBytes []byte) {
	r.modules[name.String()] = wasmBytes
}

// Run instantiates and invokes the named script's `check` export. Scripts
// are required to be deterministic and side-effect free; the runtime grants
// no host imports beyond what wasmer's default environment provides.
func (r *WasmScriptRunner) Run(name Name128, signingKeys []PublicKey) (bool, error) {
	wasmBytes, ok := r.modules[name.String()]
	if !ok {
		return false, newChainError(ErrInvalidScriptResult, "unregistered script", "name", name.String())
	}
	module, err := wasmer.NewModule(r.store, wasmBytes)
	if err != nil {
		return false, newChainError(ErrInvalidScriptResult, "script compile failed", "name", name.String(), "error", err.Error())
	}
	importObject := wasmer.NewImportObject()
	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return false, newChainError(ErrInvalidScriptResult, "script instantiation failed", "name", name.String(), "error", err.Error())
	}
	check, err := instance.Exports.GetFunction("check")
	if err != nil {
		return false, newChainError(ErrInvalidScriptResult, "script missing check export", "name", name.String())
	}
	result, err := check(int32(len(signingKeys)))
	if err != nil {
		return false, newChainError(ErrInvalidScriptResult, "script execution failed", "name", name.String(), "error", err.Error())
	}
	v, ok := result.(int32)
	if !ok {
		return false, newChainError(ErrInvalidScriptResult, "script returned non-integer result", "name", name.String())
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, newChainError(ErrInvalidScriptResult, "script returned non-boolean result", "name", name.String(), "value", fmt.Sprint(v))
	}
}
