// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"fmt"

	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/orderedmap"
)

// Registry resolves check names to their constructors. The encoder,
// the decoder and the script generator all consult the same registry,
// so a name either works everywhere or nowhere. Lookup is by exact
// name; there is no fuzzy matching.
type Registry interface {
	Resolve(name string) (Method, bool)
	Methods() []string
}

// Method is one entry of a Registry: a named constructor that rebuilds
// a runnable Check from stored statistics.
type Method struct {
	Name       string
	Statistics []string

	build func(stats []interface{}) (Check, error)
}

// Build constructs the check from params. Params match the declared
// statistics by name in any order; Build restores declared order and
// normalizes the values.
func (m Method) Build(params ...Param) (Check, error) {
	if len(params) != len(m.Statistics) {
		return Check{}, fmt.Errorf("check '%s' expects %d statistic(s) %v, got %d",
			m.Name, len(m.Statistics), m.Statistics, len(params))
	}

	ordered := make([]Param, 0, len(m.Statistics))
	stats := make([]interface{}, 0, len(m.Statistics))
	for _, statName := range m.Statistics {
		found := false
		for _, p := range params {
			if p.Name == statName {
				val := NormalizeValue(p.Value)
				ordered = append(ordered, Param{Name: statName, Value: val})
				stats = append(stats, val)
				found = true
				break
			}
		}
		if !found {
			return Check{}, fmt.Errorf("check '%s' missing statistic '%s' (expects %v)",
				m.Name, statName, m.Statistics)
		}
	}

	chk, err := m.build(stats)
	if err != nil {
		return Check{}, fmt.Errorf("check '%s': %s", m.Name, err)
	}
	chk.name = m.Name
	chk.params = ordered
	return chk, nil
}

// OrderedParams sorts params into the declared statistic order,
// keeping any stragglers in their given order at the end. Unlike
// Build it never fails; encoders use it to render whatever a check
// carries.
func (m Method) OrderedParams(params []Param) []Param {
	if len(params) < 2 {
		return params
	}
	ordered := make([]Param, 0, len(params))
	taken := make(map[string]bool, len(params))
	for _, statName := range m.Statistics {
		for _, p := range params {
			if p.Name == statName && !taken[p.Name] {
				ordered = append(ordered, p)
				taken[p.Name] = true
			}
		}
	}
	for _, p := range params {
		if !taken[p.Name] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// UnknownMethodError reports a check name absent from the registry.
// Decoding stops on it: a schema document cannot be rebuilt without a
// constructor for every check it names.
type UnknownMethodError struct {
	Name string
}

func (e UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown check method '%s': if it is one of your custom checks, register it before decoding", e.Name)
}

type methodSet struct {
	methods *orderedmap.Map
}

func newMethodSet() *methodSet {
	return &methodSet{methods: orderedmap.NewMap()}
}

func (s *methodSet) Resolve(name string) (Method, bool) {
	val, found := s.methods.Get(name)
	if !found {
		return Method{}, false
	}
	return val.(Method), true
}

func (s *methodSet) Methods() []string { return s.methods.Keys() }

// custom holds process-wide registrations layered over the builtins.
// Registration is expected at program start; mutating the set while
// schemas are being decoded is not supported.
var custom = newMethodSet()

type defaultRegistry struct{}

func (defaultRegistry) Resolve(name string) (Method, bool) {
	if m, found := builtins.Resolve(name); found {
		return m, true
	}
	return custom.Resolve(name)
}

func (defaultRegistry) Methods() []string {
	return append(builtins.Methods(), custom.Methods()...)
}

// DefaultRegistry returns the process-wide registry: the builtin
// methods plus everything added via RegisterMethod.
func DefaultRegistry() Registry { return defaultRegistry{} }

// SeriesMethodFn backs a custom column-level method; stats arrive in
// the method's declared statistic order.
type SeriesMethodFn func(s *dataframe.Series, stats []interface{}) (bool, error)

// FrameMethodFn backs a custom table-level method.
type FrameMethodFn func(df *dataframe.DataFrame, stats []interface{}) (bool, error)

// RegisterMethod adds a custom column-level check method to the
// process-wide registry. Names cannot shadow builtins or earlier
// registrations.
func RegisterMethod(name string, statistics []string, fn SeriesMethodFn) error {
	return register(Method{Name: name, Statistics: statistics,
		build: func(stats []interface{}) (Check, error) {
			return Check{target: TargetSeries, seriesFn: func(s *dataframe.Series) (bool, error) {
				return fn(s, stats)
			}}, nil
		}})
}

// RegisterFrameMethod adds a custom table-level check method.
func RegisterFrameMethod(name string, statistics []string, fn FrameMethodFn) error {
	return register(Method{Name: name, Statistics: statistics,
		build: func(stats []interface{}) (Check, error) {
			return Check{target: TargetFrame, frameFn: func(df *dataframe.DataFrame) (bool, error) {
				return fn(df, stats)
			}}, nil
		}})
}

// MustRegisterMethod is RegisterMethod, panicking on error. Meant for
// package init of extension libraries.
func MustRegisterMethod(name string, statistics []string, fn SeriesMethodFn) {
	if err := RegisterMethod(name, statistics, fn); err != nil {
		panic(err.Error())
	}
}

// MustRegisterFrameMethod is RegisterFrameMethod, panicking on error.
func MustRegisterFrameMethod(name string, statistics []string, fn FrameMethodFn) {
	if err := RegisterFrameMethod(name, statistics, fn); err != nil {
		panic(err.Error())
	}
}

// UnregisterMethod removes a custom method. Builtins cannot be removed.
func UnregisterMethod(name string) {
	custom.methods.Delete(name)
}

func register(m Method) error {
	if m.Name == "" {
		return fmt.Errorf("check method name cannot be empty")
	}
	if _, found := DefaultRegistry().Resolve(m.Name); found {
		return fmt.Errorf("check method '%s' is already registered", m.Name)
	}
	custom.methods.Set(m.Name, m)
	return nil
}

// Materialize returns a runnable version of chk. Named checks carrying
// no function are rebuilt through reg; checks that already carry one
// come back unchanged.
func Materialize(chk Check, reg Registry) (Check, error) {
	if chk.Bound() || chk.name == "" {
		return chk, nil
	}
	method, found := reg.Resolve(chk.name)
	if !found {
		return Check{}, UnknownMethodError{chk.name}
	}
	return method.Build(chk.params...)
}
