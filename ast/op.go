// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Op is a unary, binary or assignment operator.
type Op uint8

const (
	OpInvalid Op = iota

	// Unary
	OpNeg    // -x
	OpPos    // +x
	OpNot    // !x
	OpBitNot // ~x
	OpInc    // ++x or x++
	OpDec    // --x or x--

	// Binary
	OpMul
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpShl
	OpShr
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
	OpBitAnd
	OpBitXor
	OpBitOr
	OpAnd
	OpXor
	OpOr

	// Assignment
	OpAssign
	OpMulAssign
	OpDivAssign
	OpModAssign
	OpAddAssign
	OpSubAssign
	OpShlAssign
	OpShrAssign
	OpAndAssign
	OpXorAssign
	OpOrAssign
)

var opText = [...]string{
	OpInvalid: "?",
	OpNeg:     "-",
	OpPos:     "+",
	OpNot:     "!",
	OpBitNot:  "~",
	OpInc:     "++",
	OpDec:     "--",
	OpMul:     "*",
	OpDiv:     "/",
	OpMod:     "%",
	OpAdd:     "+",
	OpSub:     "-",
	OpShl:     "<<",
	OpShr:     ">>",
	OpLt:      "<",
	OpGt:      ">",
	OpLe:      "<=",
	OpGe:      ">=",
	OpEq:      "==",
	OpNe:      "!=",
	OpBitAnd:  "&",
	OpBitXor:  "^",
	OpBitOr:   "|",
	OpAnd:     "&&",
	OpXor:     "^^",
	OpOr:      "||",

	OpAssign:    "=",
	OpMulAssign: "*=",
	OpDivAssign: "/=",
	OpModAssign: "%=",
	OpAddAssign: "+=",
	OpSubAssign: "-=",
	OpShlAssign: "<<=",
	OpShrAssign: ">>=",
	OpAndAssign: "&=",
	OpXorAssign: "^=",
	OpOrAssign:  "|=",
}

func (o Op) String() string {
	if int(o) < len(opText) {
		return opText[o]
	}
	return "?"
}

// Precedence levels, from loosest to tightest binding. The values follow the
// GLSL operator table.
const (
	PrecSequence = iota + 1
	PrecAssign
	PrecTernary
	PrecOr
	PrecXor
	PrecAnd
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecEquality
	PrecRelational
	PrecShift
	PrecAdditive
	PrecMultiplicative
	PrecUnary
	PrecPostfix
	PrecPrimary
)

// BinaryPrecedence returns the precedence of a binary operator, or 0.
func (o Op) BinaryPrecedence() int {
	switch o {
	case OpMul, OpDiv, OpMod:
		return PrecMultiplicative
	case OpAdd, OpSub:
		return PrecAdditive
	case OpShl, OpShr:
		return PrecShift
	case OpLt, OpGt, OpLe, OpGe:
		return PrecRelational
	case OpEq, OpNe:
		return PrecEquality
	case OpBitAnd:
		return PrecBitAnd
	case OpBitXor:
		return PrecBitXor
	case OpBitOr:
		return PrecBitOr
	case OpAnd:
		return PrecAnd
	case OpXor:
		return PrecXor
	case OpOr:
		return PrecOr
	}
	return 0
}

// IsAssign reports whether o is an assignment operator.
func (o Op) IsAssign() bool {
	return o >= OpAssign && o <= OpOrAssign
}
