package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	SourceText string
	Count      int
}

// responseSchema represents the expected structure of the Gemini API reply
type responseSchema struct {
	// Cards is the array of flashcard candidates generated from the source text
	Cards []cardSchema `json:"cards"`
}

// cardSchema represents a single flashcard candidate in the API response
type cardSchema struct {
	// Front is the question or prompt side of the flashcard
	Front string `json:"front"`

	// Back is the answer side of the flashcard
	Back string `json:"back"`
}
