package numexpr

import "numexpr/internal/reduce"

// reduceScalar wraps internal/reduce.Scalar behind the public Array/
// Params aliases.
func reduceScalar(e *Expr, vars []Array, n int, params Params) (Scalar, error) {
	return reduce.Scalar(e.res, vars, n, params)
}
