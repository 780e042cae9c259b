// Package flashcard converts captured exam-question and explanation markup
// into small, portable HTML documents suitable for a flashcard field.
//
// The pipeline is deterministic and stateless: each call parses its own
// document tree, normalizes MathJax placeholders into LaTeX-delimited text,
// rebuilds monospace blocks, strips everything outside a fixed allow-list
// and, when the source markers are present, separates the question
// statement from its lettered alternatives.
package flashcard

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Fixed output strings. Callers store these as regular field content.
const (
	// UnavailableExplanation is produced by the capture layer when no
	// explanation could be obtained. The pipeline returns it untouched.
	UnavailableExplanation = "⚠️ Comentário não disponível para esta questão."

	// ErrEmptyInput is returned for empty or whitespace-only markup.
	ErrEmptyInput = "ERRO: O HTML está vazio."

	// ErrNoContainer is returned when no statement, alternatives,
	// explanation or body content could be resolved.
	ErrNoContainer = "ERRO: Nenhum container de questão ou comentário foi encontrado."

	// unexpectedFaultFormat wraps the message of any recovered fault.
	unexpectedFaultFormat = "Ocorreu um erro inesperado: %v"
)

// Selectors locate the source site's structural markers.
type Selectors struct {
	Question         string   `json:"question" validate:"required"`
	Statement        string   `json:"statement" validate:"required"`
	Alternatives     string   `json:"alternatives" validate:"required"`
	AlternativeLabel string   `json:"alternative_label" validate:"required"`
	AlternativeBody  string   `json:"alternative_body" validate:"required"`
	Explanation      string   `json:"explanation" validate:"required"`
	Monospace        string   `json:"monospace" validate:"required"`
	EmptyElements    []string `json:"empty_elements"`
}

// Config controls the flashcard pipeline.
type Config struct {
	// DropDataURIImages removes <img> elements whose src is a data: URI.
	DropDataURIImages bool `json:"drop_data_uri_images"`

	// MaxImageURLChars removes <img> elements whose src is longer than this.
	MaxImageURLChars int `json:"max_image_url_chars" validate:"gte=1"`

	// PreserveClasses keeps class attributes during noise stripping.
	PreserveClasses bool `json:"preserve_classes"`

	// Unavailable is passed through unchanged when it is the whole input.
	Unavailable string `json:"unavailable" validate:"required"`

	Selectors Selectors `json:"selectors"`
}

// DefaultSelectors returns the markers used by the TEC Concursos pages.
func DefaultSelectors() Selectors {
	return Selectors{
		Question:         "article.questao-enunciado",
		Statement:        "div.questao-enunciado-texto",
		Alternatives:     "ul.questao-enunciado-alternativas",
		AlternativeLabel: ".questao-enunciado-alternativa-opcao label",
		AlternativeBody:  ".questao-enunciado-alternativa-texto",
		Explanation:      "div.questao-complementos-comentario-conteudo-texto",
		Monospace:        "span.texto-monospace",
		EmptyElements:    []string{"p.elemento-vazio", "div.elemento-vazio"},
	}
}

// DefaultConfig returns the configuration used for flashcard fields.
func DefaultConfig() *Config {
	return &Config{
		DropDataURIImages: true,
		MaxImageURLChars:  300,
		PreserveClasses:   false,
		Unavailable:       UnavailableExplanation,
		Selectors:         DefaultSelectors(),
	}
}

// Validate reports the first invalid field, if any.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid flashcard config: %w", err)
	}
	return nil
}
