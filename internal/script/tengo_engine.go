package script

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// TengoEngine compiles and runs Tengo programs under SecurityLimits.
type TengoEngine struct {
	securityLimits SecurityLimits
	logger         *slog.Logger
}

// NewTengoEngine creates a new Tengo engine with default security limits.
func NewTengoEngine() *TengoEngine {
	return &TengoEngine{
		securityLimits: GetDefaultSecurityLimits(),
		logger:         slog.Default().With("component", "script"),
	}
}

// SetSecurityLimits configures resource and security constraints.
func (e *TengoEngine) SetSecurityLimits(limits SecurityLimits) {
	e.securityLimits = limits
}

// SecurityLimits returns the limits in use.
func (e *TengoEngine) SecurityLimits() SecurityLimits {
	return e.securityLimits
}

// Program is a compiled script. Runs work on clones, so one Program may be
// shared between goroutines.
type Program struct {
	Name     string
	compiled *tengo.Compiled
	limits   SecurityLimits
}

// Compile prepares source for execution. vars declares every input variable
// with its zero value; inputs that are not declared cannot be set later.
func (e *TengoEngine) Compile(name string, source []byte, vars map[string]any) (*Program, error) {
	startTime := time.Now()

	s := tengo.NewScript(source)
	s.SetImports(e.buildModuleMap())
	if e.securityLimits.MaxAllocs > 0 {
		s.SetMaxAllocs(e.securityLimits.MaxAllocs)
	}

	for key, value := range vars {
		if err := s.Add(key, value); err != nil {
			return nil, NewScriptError(ErrorTypeCompilation, name, fmt.Sprintf("failed to declare variable %s", key), err)
		}
	}
	if err := e.addLoggingFunction(s, name); err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, name, "failed to add logging function", err)
	}

	compiled, err := s.Compile()
	if err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, name, "failed to compile Tengo script", err)
	}

	e.logger.Debug("Tengo script compiled successfully",
		"script", name,
		"compilation_time", time.Since(startTime),
	)
	return &Program{Name: name, compiled: compiled, limits: e.securityLimits}, nil
}

// Run executes a clone of the program with inputs set and returns the clone
// for reading outputs.
func (p *Program) Run(ctx context.Context, inputs map[string]any) (result *tengo.Compiled, err error) {
	c := p.compiled.Clone()
	for key, value := range inputs {
		if err := c.Set(key, value); err != nil {
			return nil, NewScriptError(ErrorTypeExecution, p.Name, fmt.Sprintf("failed to set input variable %s", key), err)
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, p.limits.MaxExecutionTime)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = NewScriptError(ErrorTypeExecution, p.Name, "script panic", fmt.Errorf("%v", r))
		}
	}()

	if err := c.RunContext(execCtx); err != nil {
		if execCtx.Err() != nil {
			return nil, NewScriptError(ErrorTypeTimeout, p.Name, "script execution timed out", err)
		}
		return nil, NewScriptError(ErrorTypeExecution, p.Name, "script execution failed", err)
	}
	return c, nil
}

// buildModuleMap creates the allowed modules map based on security limits.
func (e *TengoEngine) buildModuleMap() *tengo.ModuleMap {
	modules := tengo.NewModuleMap()
	for _, pkg := range e.securityLimits.AllowedPackages {
		if module, exists := stdlib.BuiltinModules[pkg]; exists {
			modules.AddBuiltinModule(pkg, module)
		}
	}
	return modules
}

// addLoggingFunction exposes log(msg) to scripts, writing through slog.
func (e *TengoEngine) addLoggingFunction(s *tengo.Script, name string) error {
	logger := e.logger
	logFunc := &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			msg := args[0].String()
			if str, ok := args[0].(*tengo.String); ok {
				msg = str.Value
			}
			logger.Info("Script log", "message", msg, "script", name)
			return tengo.UndefinedValue, nil
		},
	}
	return s.Add("log", logFunc)
}
