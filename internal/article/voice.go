package article

import (
	"strings"
	"sync"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
	"github.com/pemistahl/lingua-go"
)

// Voices offered to users.
var Voices = []string{"Rachel", "Domi", "Bella", "Antoni", "Elli", "Josh", "Arnold", "Adam", "Sam"}

const (
	ModelMonolingual  = "eleven_monolingual_v1"
	ModelMultilingual = "eleven_multilingual_v1"
	ModelAuto         = "auto"
)

var Models = []string{ModelMonolingual, ModelMultilingual, ModelAuto}

// Voice returns the canonical spelling of name.
func Voice(name string) (string, error) {
	for _, v := range Voices {
		if strings.EqualFold(v, strings.TrimSpace(name)) {
			return v, nil
		}
	}
	return "", &domain.InvalidInputError{Field: "voice", Value: name, Reason: "must be one of " + strings.Join(Voices, ", ")}
}

// Model validates model and resolves auto against the language of text:
// English goes to the monolingual model, anything else to the multilingual one.
func Model(model, text string) (string, error) {
	m := strings.TrimSpace(model)
	switch m {
	case ModelMonolingual, ModelMultilingual:
		return m, nil
	case ModelAuto, "":
		if lang, ok := DetectLanguage(text); ok && lang != lingua.English {
			return ModelMultilingual, nil
		}
		return ModelMonolingual, nil
	}
	return "", &domain.InvalidInputError{Field: "model", Value: model, Reason: "must be one of " + strings.Join(Models, ", ")}
}

// Languages supported by the multilingual voice model.
var supported = []lingua.Language{
	lingua.English, lingua.Spanish, lingua.French, lingua.German, lingua.Italian,
	lingua.Portuguese, lingua.Polish, lingua.Hindi,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectLanguage reports the most likely language of text among the
// supported ones.
func DetectLanguage(text string) (lingua.Language, bool) {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(supported...).
			WithLowAccuracyMode().
			Build()
	})
	if r := []rune(text); len(r) > 2000 {
		text = string(r[:2000])
	}
	return detector.DetectLanguageOf(text)
}
