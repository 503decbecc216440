package shortcode

import (
	"math/rand/v2"

	"github.com/go-playground/validator/v10"
)

const (
	// Charset contains every character a short code may use.
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the length of generated codes.
	CodeLength = 7
	// MinLength and MaxLength bound caller-supplied custom codes.
	MinLength = 6
	MaxLength = 8
)

const customCodeRule = "required,alphanum,min=6,max=8"

// Generator produces random short code candidates and validates custom ones.
// Generated codes carry no uniqueness guarantee.
type Generator struct {
	length   int
	validate *validator.Validate
}

// NewGenerator creates a generator producing CodeLength-character codes.
func NewGenerator() *Generator {
	return &Generator{
		length:   CodeLength,
		validate: validator.New(),
	}
}

// Generate returns a random candidate code. Safe for concurrent use.
func (g *Generator) Generate() string {
	b := make([]byte, g.length)
	for i := range b {
		b[i] = Charset[rand.IntN(len(Charset))]
	}
	return string(b)
}

// Validate reports whether code is an acceptable custom code:
// 6 to 8 ASCII letters or digits.
func (g *Generator) Validate(code string) bool {
	return g.validate.Var(code, customCodeRule) == nil
}
