package buildgraph

import "github.com/pyrate-build/pyrate/internal/fingerprint"

// InputFile is a literal filename, advertising itself as an input under
// any rule (the None default).
type InputFile struct {
	Base
	Name string
}

// NewInputFile wraps a plain filename as a Source.
func NewInputFile(name string) *InputFile {
	f := &InputFile{Name: name}
	f.Base = NewBase(f, []KeyedSources{{Key: "", Values: []Source{SelfRef}}}, nil, nil)
	return f
}

// Fingerprint identifies an InputFile by its name alone.
func (f *InputFile) Fingerprint() fingerprint.Fingerprint {
	return fingerprint.New().String("InputFile").String(f.Name).Build()
}
