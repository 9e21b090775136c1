package ports

import "github.com/layer-3/casque/core"

// Tokenizer converts authenticated subjects to signed assertions and back
type Tokenizer interface {
	SubjectToToken(subject *core.Subject) (string, error)
	TokenToSubject(token string) (*core.Subject, error)
}
