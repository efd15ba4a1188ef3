package quad

import (
	"fmt"
	"math"
	"slices"
	"sync"
)

// Integrand is a pure scalar function, optionally registered under Name.
//
// Fn must not close over mutable state: it is called concurrently from
// every worker. Only registered integrands can cross a process boundary;
// a worker process rebuilds the function by looking Name up in its own
// registry.
type Integrand struct {
	Name string
	Fn   func(float64) float64

	// Exact returns the analytic value of the integral over [a, b] when
	// one is known for that interval. May be nil.
	Exact func(a, b float64) (float64, bool)
}

// Func wraps an anonymous function. The result cannot be used with
// Multiprocess.
func Func(fn func(float64) float64) Integrand {
	return Integrand{Fn: fn}
}

var registry = struct {
	mu    sync.RWMutex
	funcs map[string]Integrand
}{
	funcs: make(map[string]Integrand),
}

// Register adds f to the process-wide registry. Register from an init
// function so that worker processes, which run the same binary, see the
// same set.
func Register(f Integrand) error {
	if f.Name == "" {
		return fmt.Errorf("register integrand: empty name")
	}
	if f.Fn == nil {
		return fmt.Errorf("register integrand %q: nil function", f.Name)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.funcs[f.Name]; ok {
		return fmt.Errorf("register integrand %q: already registered", f.Name)
	}
	registry.funcs[f.Name] = f
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(f Integrand) {
	if err := Register(f); err != nil {
		panic(err)
	}
}

// Lookup returns the integrand registered under name.
func Lookup(name string) (Integrand, error) {
	registry.mu.RLock()
	f, ok := registry.funcs[name]
	registry.mu.RUnlock()

	if !ok {
		return Integrand{}, fmt.Errorf("%w: %q", ErrUnknownIntegrand, name)
	}
	return f, nil
}

// Names returns the registered integrand names in sorted order.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.funcs))
	for name := range registry.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// antiderivative builds an Exact func from F, valid on intervals for which
// ok(a, b) holds.
func antiderivative(F func(float64) float64, ok func(a, b float64) bool) func(a, b float64) (float64, bool) {
	return func(a, b float64) (float64, bool) {
		if ok != nil && !ok(a, b) {
			return 0, false
		}
		return F(b) - F(a), true
	}
}

func positive(a, b float64) bool    { return a > 0 && b > 0 }
func nonNegative(a, b float64) bool { return a >= 0 && b >= 0 }
func excludesZero(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func init() {
	builtins := []Integrand{
		// polynomials
		{
			Name:  "x^2",
			Fn:    func(x float64) float64 { return x * x },
			Exact: antiderivative(func(x float64) float64 { return x * x * x / 3 }, nil),
		},
		{
			Name:  "x^3",
			Fn:    func(x float64) float64 { return x * x * x },
			Exact: antiderivative(func(x float64) float64 { return x * x * x * x / 4 }, nil),
		},
		{
			Name: "2*x^3 - 5*x + 1",
			Fn:   func(x float64) float64 { return 2*x*x*x - 5*x + 1 },
			Exact: antiderivative(func(x float64) float64 {
				return x*x*x*x/2 - 5*x*x/2 + x
			}, nil),
		},
		{
			Name: "x^4 - 4*x^2",
			Fn:   func(x float64) float64 { return math.Pow(x, 4) - 4*x*x },
			Exact: antiderivative(func(x float64) float64 {
				return math.Pow(x, 5)/5 - 4*x*x*x/3
			}, nil),
		},

		// trigonometric
		{
			Name:  "sin(x)",
			Fn:    math.Sin,
			Exact: antiderivative(func(x float64) float64 { return -math.Cos(x) }, nil),
		},
		{
			Name:  "cos(x)",
			Fn:    math.Cos,
			Exact: antiderivative(math.Sin, nil),
		},
		{
			Name:  "sin(x) + cos(x)",
			Fn:    func(x float64) float64 { return math.Sin(x) + math.Cos(x) },
			Exact: antiderivative(func(x float64) float64 { return math.Sin(x) - math.Cos(x) }, nil),
		},
		{
			Name: "sin(x) * cos(x)",
			Fn:   func(x float64) float64 { return math.Sin(x) * math.Cos(x) },
			Exact: antiderivative(func(x float64) float64 {
				s := math.Sin(x)
				return s * s / 2
			}, nil),
		},
		{
			Name:  "x * sin(x)",
			Fn:    func(x float64) float64 { return x * math.Sin(x) },
			Exact: antiderivative(func(x float64) float64 { return math.Sin(x) - x*math.Cos(x) }, nil),
		},

		// exponential and logarithmic
		{
			Name:  "exp(x)",
			Fn:    math.Exp,
			Exact: antiderivative(math.Exp, nil),
		},
		{
			Name: "log(x)",
			Fn: func(x float64) float64 {
				if x <= 0 {
					return 0
				}
				return math.Log(x)
			},
			Exact: antiderivative(func(x float64) float64 { return x*math.Log(x) - x }, positive),
		},
		{
			Name: "exp(-x^2)",
			Fn:   func(x float64) float64 { return math.Exp(-x * x) },
			Exact: antiderivative(func(x float64) float64 {
				return math.Sqrt(math.Pi) / 2 * math.Erf(x)
			}, nil),
		},

		// rational and roots
		{
			Name: "1/x",
			Fn: func(x float64) float64 {
				if x == 0 {
					return math.NaN()
				}
				return 1 / x
			},
			Exact: antiderivative(func(x float64) float64 { return math.Log(math.Abs(x)) }, excludesZero),
		},
		{
			Name:  "1/(1 + x^2)",
			Fn:    func(x float64) float64 { return 1 / (1 + x*x) },
			Exact: antiderivative(math.Atan, nil),
		},
		{
			Name:  "4/(1 + x^2)",
			Fn:    func(x float64) float64 { return 4 / (1 + x*x) },
			Exact: antiderivative(func(x float64) float64 { return 4 * math.Atan(x) }, nil),
		},
		{
			Name: "sqrt(x)",
			Fn: func(x float64) float64 {
				if x < 0 {
					return 0
				}
				return math.Sqrt(x)
			},
			Exact: antiderivative(func(x float64) float64 { return 2 * x * math.Sqrt(x) / 3 }, nonNegative),
		},
		{
			Name: "exp(x) / (1 + x^2)",
			Fn:   func(x float64) float64 { return math.Exp(x) / (1 + x*x) },
		},
	}

	for _, f := range builtins {
		MustRegister(f)
	}
}
