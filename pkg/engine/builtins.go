package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/waterline/pkg/cutter"
	"github.com/chazu/waterline/pkg/geom"
	"github.com/chazu/waterline/pkg/kernel"
	"github.com/chazu/waterline/pkg/waterline"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites job script source into something zygomys
// accepts:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords never
//     collide with user variables.
//  2. Hyphens inside identifiers become underscores (ball-cutter ->
//     ball_cutter); zygomys reads a bare hyphen as subtraction.
//  3. ; and ;; line comments become // comments.
//
// String literals (double-quoted and backtick) are copied untouched.
func preprocessSource(source string) string {
	src := []byte(source)
	out := make([]byte, 0, len(src)+len(src)/4)

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '`':
			j := skipString(src, i)
			out = append(out, src[i:j]...)
			i = j

		case c == ';':
			for i < len(src) && src[i] == ';' {
				i++
			}
			out = append(out, '/', '/')
			for i < len(src) && src[i] != '\n' {
				out = append(out, src[i])
				i++
			}

		case c == ':' && i+1 < len(src) && src[i+1] == '=':
			out = append(out, ':', '=')
			i += 2

		case c == ':' && i+1 < len(src) && isLetter(src[i+1]):
			j := i + 1
			for j < len(src) && isKWChar(src[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, src[i+1:j]...)
			out = append(out, '"')
			i = j

		case c == '-' && i > 0 && i+1 < len(src) && isIdentChar(src[i-1]) && isLetter(src[i+1]):
			out = append(out, '_')
			i++

		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// skipString returns the index just past the string literal opening at
// src[i]. Backslash escapes apply to double-quoted strings only.
func skipString(src []byte, i int) int {
	quote := src[i]
	i++
	for i < len(src) && src[i] != quote {
		if quote == '"' && src[i] == '\\' {
			i++
		}
		i++
	}
	if i < len(src) {
		i++
	}
	if i > len(src) {
		i = len(src)
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel.Solid built by a primitive, boolean or transform.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string { return "(" + s.desc + ")" }
func (s *sexpSolid) Type() *zygo.RegisteredType            { return nil }

// sexpCutter wraps a validated cutter.Cutter.
type sexpCutter struct {
	cutter cutter.Cutter
}

func (c *sexpCutter) SexpString(ps *zygo.PrintState) string { return "(" + c.cutter.String() + ")" }
func (c *sexpCutter) Type() *zygo.RegisteredType            { return nil }

// sexpVec3 wraps a geom.Point.
type sexpVec3 struct {
	vec geom.Point
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpJob is returned by waterline; it names the jobs it declared.
type sexpJob struct {
	names []string
}

func (j *sexpJob) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(waterline %q)", strings.Join(j.names, " "))
}
func (j *sexpJob) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	fn         string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// A trailing keyword with no value maps to SexpNull.
func parseArgs(fn string, args []zygo.Sexp) kwArgs {
	result := kwArgs{fn: fn, kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// float returns the numeric keyword arg key. A missing key yields def,
// or an error when required is set.
func (pa kwArgs) float(key string, def float64, required bool) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("%s: missing :%s", pa.fn, key)
		}
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", pa.fn, key, err)
	}
	return f, nil
}

// solid returns the solid passed as keyword arg key.
func (pa kwArgs) solid(key string) (kernel.Solid, error) {
	v, ok := pa.kw[key]
	if !ok {
		return nil, fmt.Errorf("%s: missing :%s", pa.fn, key)
	}
	s, err := toSolid(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", pa.fn, key, err)
	}
	return s, nil
}

// vec returns the vec3 passed as keyword arg key, or def.
func (pa kwArgs) vec(key string, def geom.Point) (geom.Point, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	p, err := toVec3(v)
	if err != nil {
		return geom.Point{}, fmt.Errorf("%s: %s: %w", pa.fn, key, err)
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (geom.Point, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Point{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

func toCutter(s zygo.Sexp) (cutter.Cutter, error) {
	if v, ok := s.(*sexpCutter); ok {
		return v.cutter, nil
	}
	return cutter.Cutter{}, fmt.Errorf("expected cutter, got %T (%s)", s, s.SexpString(nil))
}

// toFloats accepts a single number or a list or array of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	if f, err := toFloat64(s); err == nil {
		return []float64{f}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected number or list of numbers, got %T", s)
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		f, err := toFloat64(it)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the job script builtins into env. Solids are
// built with k; each waterline call appends to p.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens and kebab-case names are recognised.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, p *Program) {
	b := map[string]builtin{
		"vec3": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 3 {
				return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
			}
			var xyz [3]float64
			for i, a := range args {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
				}
				xyz[i] = f
			}
			return &sexpVec3{vec: geom.Point{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
		},

		// (box :size (vec3 40 30 10))
		"box": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("box", args)
			if _, ok := pa.kw["size"]; !ok {
				return zygo.SexpNull, fmt.Errorf("box: missing :size")
			}
			size, err := pa.vec("size", geom.Point{})
			if err != nil {
				return zygo.SexpNull, err
			}
			return primitive(fmt.Sprintf("box %g %g %g", size.X, size.Y, size.Z))(k.Box(size.X, size.Y, size.Z))
		},

		// (cylinder :height 20 :radius 5)
		"cylinder": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("cylinder", args)
			h, err := pa.float("height", 0, true)
			if err != nil {
				return zygo.SexpNull, err
			}
			r, err := pa.float("radius", 0, true)
			if err != nil {
				return zygo.SexpNull, err
			}
			return primitive(fmt.Sprintf("cylinder h=%g r=%g", h, r))(k.Cylinder(h, r))
		},

		// (sphere :radius 10)
		"sphere": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("sphere", args)
			r, err := pa.float("radius", 0, true)
			if err != nil {
				return zygo.SexpNull, err
			}
			return primitive(fmt.Sprintf("sphere r=%g", r))(k.Sphere(r))
		},

		// (cone :height 20 :bottom 10 :top 2)
		"cone": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("cone", args)
			h, err := pa.float("height", 0, true)
			if err != nil {
				return zygo.SexpNull, err
			}
			r0, err := pa.float("bottom", 0, true)
			if err != nil {
				return zygo.SexpNull, err
			}
			r1, err := pa.float("top", 0, false)
			if err != nil {
				return zygo.SexpNull, err
			}
			return primitive(fmt.Sprintf("cone h=%g %g->%g", h, r0, r1))(k.Cone(h, r0, r1))
		},

		"union":        boolean("union", k.Union),
		"difference":   boolean("difference", k.Difference),
		"intersection": boolean("intersection", k.Intersection),

		// (place solid :at (vec3 0 0 10))
		"place": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("place", args)
			s, err := firstSolid(pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			at, err := pa.vec("at", geom.Point{})
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: k.Translate(s, at.X, at.Y, at.Z), desc: "place " + at.String()}, nil
		},

		// (rotate solid :by (vec3 0 0 45))
		"rotate": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("rotate", args)
			s, err := firstSolid(pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			by, err := pa.vec("by", geom.Point{})
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: k.Rotate(s, by.X, by.Y, by.Z), desc: "rotate " + by.String()}, nil
		},

		// (ball-cutter :diameter 6 :length 30)
		"ball_cutter": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("ball-cutter", args)
			d, l, err := cutterSize(pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			return newCutter(pa.fn)(cutter.NewBall(d, l))
		},

		// (cylindrical-cutter :diameter 6 :length 30)
		"cylindrical_cutter": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("cylindrical-cutter", args)
			d, l, err := cutterSize(pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			return newCutter(pa.fn)(cutter.NewCylindrical(d, l))
		},

		// (bull-cutter :diameter 6 :corner-radius 1 :length 30)
		"bull_cutter": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("bull-cutter", args)
			d, l, err := cutterSize(pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			rc, err := pa.float("corner-radius", 0, true)
			if err != nil {
				return zygo.SexpNull, err
			}
			return newCutter(pa.fn)(cutter.NewBull(d, rc, l))
		},

		// (cone-cutter :diameter 6 :angle 45 :length 30), angle in degrees
		"cone_cutter": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs("cone-cutter", args)
			d, l, err := cutterSize(pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			deg, err := pa.float("angle", 0, true)
			if err != nil {
				return zygo.SexpNull, err
			}
			return newCutter(pa.fn)(cutter.NewCone(d, deg*math.Pi/180, l))
		},

		// (waterline "name" :solid s :cutter c :z 0 :sampling 1 :step 0.25
		//            :tolerance 0.0001 :workers 4 :min-points 3)
		//
		// :z also takes a list of heights; each height becomes its own job,
		// named "name@z".
		"waterline": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return declareJobs(parseArgs("waterline", args), p)
		},
	}

	for fn, f := range b {
		env.AddFunction(fn, f)
	}
}

func primitive(desc string) func(kernel.Solid, error) (zygo.Sexp, error) {
	return func(s kernel.Solid, err error) (zygo.Sexp, error) {
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: s, desc: desc}, nil
	}
}

func newCutter(fn string) func(cutter.Cutter, error) (zygo.Sexp, error) {
	return func(c cutter.Cutter, err error) (zygo.Sexp, error) {
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
		return &sexpCutter{cutter: c}, nil
	}
}

func cutterSize(pa kwArgs) (diameter, length float64, err error) {
	if diameter, err = pa.float("diameter", 0, true); err != nil {
		return 0, 0, err
	}
	if length, err = pa.float("length", 0, true); err != nil {
		return 0, 0, err
	}
	return diameter, length, nil
}

func firstSolid(pa kwArgs) (kernel.Solid, error) {
	if len(pa.positional) < 1 {
		return nil, fmt.Errorf("%s requires a solid as first argument", pa.fn)
	}
	s, err := toSolid(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pa.fn, err)
	}
	return s, nil
}

// boolean folds op over two or more solid arguments, left to right.
func boolean(fn string, op func(a, b kernel.Solid) kernel.Solid) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", fn, len(args))
		}
		var acc kernel.Solid
		for i, a := range args {
			s, err := toSolid(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
			}
			if acc == nil {
				acc = s
			} else {
				acc = op(acc, s)
			}
		}
		return &sexpSolid{solid: acc, desc: fmt.Sprintf("%s of %d", fn, len(args))}, nil
	}
}

// declareJobs appends one job per requested height to p.
func declareJobs(pa kwArgs, p *Program) (zygo.Sexp, error) {
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("waterline requires a name argument")
	}
	jobName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("waterline: name: %w", err)
	}
	s, err := pa.solid("solid")
	if err != nil {
		return zygo.SexpNull, err
	}
	v, ok := pa.kw["cutter"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("waterline: missing :cutter")
	}
	c, err := toCutter(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("waterline: cutter: %w", err)
	}

	cfg := waterline.DefaultConfig()
	for _, opt := range []struct {
		key string
		dst *float64
	}{
		{"sampling", &cfg.Sampling},
		{"step", &cfg.Step},
		{"tolerance", &cfg.Tolerance},
	} {
		if *opt.dst, err = pa.float(opt.key, *opt.dst, false); err != nil {
			return zygo.SexpNull, err
		}
	}
	for _, opt := range []struct {
		key string
		dst *int
	}{
		{"workers", &cfg.Workers},
		{"min-points", &cfg.MinLoopPoints},
	} {
		f, err := pa.float(opt.key, float64(*opt.dst), false)
		if err != nil {
			return zygo.SexpNull, err
		}
		if f != math.Trunc(f) || f < 0 {
			return zygo.SexpNull, fmt.Errorf("waterline: %s: expected a non-negative integer, got %g", opt.key, f)
		}
		*opt.dst = int(f)
	}
	if err := cfg.Validate(); err != nil {
		return zygo.SexpNull, err
	}

	heights := []float64{0}
	if v, ok := pa.kw["z"]; ok {
		if heights, err = toFloats(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("waterline: z: %w", err)
		}
		if len(heights) == 0 {
			return zygo.SexpNull, fmt.Errorf("waterline: z: no heights given")
		}
	}

	ret := &sexpJob{}
	for _, z := range heights {
		name := jobName
		if len(heights) > 1 {
			name = fmt.Sprintf("%s@%g", jobName, z)
		}
		if p.Job(name) != nil {
			return zygo.SexpNull, fmt.Errorf("waterline: duplicate job %q", name)
		}
		jc := cfg
		jc.Z = z
		p.Jobs = append(p.Jobs, waterline.Job{Name: name, Solid: s, Cutter: c, Config: jc})
		ret.names = append(ret.names, name)
	}
	return ret, nil
}
