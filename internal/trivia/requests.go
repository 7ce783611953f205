package trivia

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errMalformedID = errors.New("id must be an integer")

// questionsPost is the POST /questions body. It carries either a search
// term or the fields of a new question, so fields are kept raw until the
// mode is known.
type questionsPost map[string]json.RawMessage

func (p questionsPost) searchTerm() (term string, isSearch bool, err error) {
	raw, ok := p["searchTerm"]
	if !ok {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &term); err != nil || isNull(raw) {
		return "", true, fmt.Errorf("searchTerm must be a string")
	}
	return term, true, nil
}

func (p questionsPost) newQuestion() (NewQuestion, error) {
	var (
		params NewQuestion
		err    error
	)
	if params.Question, err = optionalString(p["question"]); err != nil {
		return NewQuestion{}, fmt.Errorf("question: %w", err)
	}
	if params.Answer, err = optionalString(p["answer"]); err != nil {
		return NewQuestion{}, fmt.Errorf("answer: %w", err)
	}
	if params.Category, err = optionalInt(p["category"]); err != nil {
		return NewQuestion{}, fmt.Errorf("category: %w", err)
	}
	if params.Difficulty, err = optionalInt(p["difficulty"]); err != nil {
		return NewQuestion{}, fmt.Errorf("difficulty: %w", err)
	}
	return params, nil
}

// quizRequest is the POST /quizzes body.
type quizRequest struct {
	PreviousQuestions json.RawMessage `json:"previous_questions"`
	QuizCategory      json.RawMessage `json:"quiz_category"`
}

// previous decodes the list of already served question ids.
func (q quizRequest) previous() ([]int, error) {
	if isNull(q.PreviousQuestions) {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(q.PreviousQuestions, &raw); err != nil {
		return nil, fmt.Errorf("previous_questions must be an array: %w", err)
	}
	ids := make([]int, 0, len(raw))
	for _, item := range raw {
		id, err := numberToInt(item)
		if err != nil {
			return nil, fmt.Errorf("previous_questions: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// category decodes quiz_category. An absent or empty category and the id 0
// mean "every category" and yield nil.
func (q quizRequest) category() (*int, error) {
	if isEmpty(q.QuizCategory) {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(q.QuizCategory, &fields); err != nil {
		return nil, fmt.Errorf("quiz_category must be an object: %w", err)
	}
	rawID, ok := fields["id"]
	if !ok || isNull(rawID) {
		return nil, fmt.Errorf("quiz_category.id is required")
	}
	id, err := flexibleInt(rawID)
	if err != nil {
		return nil, fmt.Errorf("quiz_category.id: %w", err)
	}
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// isEmpty reports whether raw is absent, null, or an empty or zero JSON
// value such as {}, "", [], 0 or false.
func isEmpty(raw json.RawMessage) bool {
	if isNull(raw) {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case string:
		return v == ""
	case float64:
		return v == 0
	case bool:
		return !v
	}
	return false
}

func optionalString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("must be a string")
	}
	return s, nil
}

func optionalInt(raw json.RawMessage) (int, error) {
	if isNull(raw) {
		return 0, nil
	}
	return flexibleInt(raw)
}

// flexibleInt accepts a JSON integer or a string holding one. Web clients
// send ids taken from JSON object keys, which are always strings.
func flexibleInt(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, errMalformedID
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, errMalformedID
		}
		return n, nil
	}
	return numberToInt(trimmed)
}

// numberToInt accepts only integral JSON numbers.
func numberToInt(raw json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, errMalformedID
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, errMalformedID
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return 0, errMalformedID
	}
	return n, nil
}
