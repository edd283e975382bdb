package services

import (
	"strings"
	"unicode/utf8"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

// Generation temperatures by question type. Factual questions want tight,
// reproducible answers; analytical ones benefit from a looser sampler.
const (
	factualTemperature    = 0.4
	analyticalTemperature = 0.65
)

// classifyQuestion scores the question against the factual and analytical
// term lists. Short questions lean factual, long ones analytical; ties go
// to factual.
func classifyQuestion(question string) domain.QuestionType {
	lowered := strings.ToLower(question)

	factual := 0
	for _, term := range domain.FactualQuestionTerms {
		if strings.Contains(lowered, term) {
			factual++
		}
	}
	analytical := 0
	for _, term := range domain.AnalyticalQuestionTerms {
		if strings.Contains(lowered, term) {
			analytical++
		}
	}

	switch n := utf8.RuneCountInString(question); {
	case n <= domain.ShortQuestionRunes:
		factual++
	case n >= domain.LongQuestionRunes:
		analytical++
	}

	if analytical > factual {
		return domain.QuestionAnalytical
	}
	return domain.QuestionFactual
}

// temperatureFor maps a question type to its generation temperature.
func temperatureFor(qt domain.QuestionType) float64 {
	if qt == domain.QuestionAnalytical {
		return analyticalTemperature
	}
	return factualTemperature
}
