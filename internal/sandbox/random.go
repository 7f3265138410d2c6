package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"golang.org/x/exp/rand"
)

// newRandomModule builds the subset of Python's random module that
// strategies use. Every run gets its own generator.
func newRandomModule(rng *rand.Rand) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "random",
		Members: starlark.StringDict{
			"random": starlark.NewBuiltin("random", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
					return nil, err
				}
				return starlark.Float(rng.Float64()), nil
			}),
			"uniform": starlark.NewBuiltin("uniform", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var x, y starlark.Value
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &y); err != nil {
					return nil, err
				}
				lo, okLo := starlark.AsFloat(x)
				hi, okHi := starlark.AsFloat(y)
				if !okLo || !okHi {
					return nil, fmt.Errorf("%s: bounds must be numbers, got %s and %s", b.Name(), x.Type(), y.Type())
				}
				return starlark.Float(lo + (hi-lo)*rng.Float64()), nil
			}),
			"randint": starlark.NewBuiltin("randint", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var lo, hi int
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &lo, &hi); err != nil {
					return nil, err
				}
				if hi < lo {
					return nil, fmt.Errorf("%s: empty range [%d, %d]", b.Name(), lo, hi)
				}
				return starlark.MakeInt(lo + rng.Intn(hi-lo+1)), nil
			}),
			"choice": starlark.NewBuiltin("choice", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var seq starlark.Indexable
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &seq); err != nil {
					return nil, err
				}
				if seq.Len() == 0 {
					return nil, fmt.Errorf("%s: cannot choose from an empty sequence", b.Name())
				}
				return seq.Index(rng.Intn(seq.Len())), nil
			}),
			"shuffle": starlark.NewBuiltin("shuffle", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var list *starlark.List
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &list); err != nil {
					return nil, err
				}
				var swapErr error
				rng.Shuffle(list.Len(), func(i, j int) {
					if swapErr != nil {
						return
					}
					vi, vj := list.Index(i), list.Index(j)
					if err := list.SetIndex(i, vj); err != nil {
						swapErr = err
						return
					}
					swapErr = list.SetIndex(j, vi)
				})
				if swapErr != nil {
					return nil, fmt.Errorf("%s: %w", b.Name(), swapErr)
				}
				return starlark.None, nil
			}),
			"seed": starlark.NewBuiltin("seed", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var n int64
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &n); err != nil {
					return nil, err
				}
				rng.Seed(uint64(n))
				return starlark.None, nil
			}),
		},
	}
}
