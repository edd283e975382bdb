package domain

import "time"

// Source points a reader back at the chunk an answer drew on.
type Source struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title"`
	Timestamp string  `json:"timestamp,omitempty"`
	Relevance float64 `json:"relevance"`
	Excerpt   string  `json:"excerpt"`
}

// AnswerResponse is the full result of answering one question.
type AnswerResponse struct {
	Answer        string        `json:"answer"`
	Sources       []Source      `json:"sources"`
	Channel       string        `json:"channel"`
	Model         string        `json:"model"`
	PromptVersion int           `json:"prompt_version"`
	QuestionType  QuestionType  `json:"question_type"`
	FromCache     bool          `json:"from_cache"`
	Latency       time.Duration `json:"latency"`
}
