package parser

import (
	"strconv"
	"strings"

	"numexpr/internal/lexer"
	"numexpr/internal/types"
)

// parseLiteral converts a scanned numeric token into a types.Scalar.
// Integer literals default to Int64, float literals to Float64, and
// imaginary-suffixed literals to Complex128 — the analyzer keeps these
// tags and promotes them like any other operand's.
func parseLiteral(tok lexer.Token) (types.Scalar, error) {
	switch tok.Type {
	case lexer.TokenHexInt:
		v, err := strconv.ParseUint(tok.Lexeme[2:], 16, 64)
		if err != nil {
			return types.Scalar{}, err
		}
		return types.Scalar{Tag: types.Int64, I: int64(v)}, nil
	case lexer.TokenInt:
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return types.Scalar{}, err
		}
		return types.Scalar{Tag: types.Int64, I: v}, nil
	case lexer.TokenFloat:
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return types.Scalar{}, err
		}
		return types.Scalar{Tag: types.Float64, F64: v}, nil
	case lexer.TokenImag:
		mantissa := strings.TrimSuffix(strings.TrimSuffix(tok.Lexeme, "I"), "j")
		v, err := strconv.ParseFloat(mantissa, 64)
		if err != nil {
			return types.Scalar{}, err
		}
		return types.Scalar{Tag: types.Complex128, C128: complex(0, v)}, nil
	default:
		return types.Scalar{}, strconvError(tok.Lexeme)
	}
}

func strconvError(lexeme string) error {
	return &strconv.NumError{Func: "parseLiteral", Num: lexeme, Err: strconv.ErrSyntax}
}
