package exam

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bank is the on-disk question bank document.
type Bank struct {
	Version   int        `json:"version" yaml:"version"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// LoadBank reads a YAML or JSON question bank and validates every question.
func LoadBank(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return ParseBank(data, format)
}

// ParseBank decodes a bank document in the given format ("json" or "yaml").
func ParseBank(data []byte, format string) ([]Question, error) {
	var (
		bank Bank
		err  error
	)
	switch format {
	case "json":
		bank, err = parseJSONBank(data)
	case "yaml", "yml":
		bank, err = parseYAMLBank(data)
	default:
		return nil, fmt.Errorf("unsupported bank format %q", format)
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(bank.Questions))
	for i := range bank.Questions {
		q := &bank.Questions[i]
		q.Subject = strings.TrimSpace(q.Subject)
		q.Chapter = strings.TrimSpace(q.Chapter)
		q.Prompt = strings.TrimSpace(q.Prompt)
		if d, err := ParseDifficulty(string(q.Difficulty)); err == nil {
			q.Difficulty = d
		}
		if err := Validate(*q); err != nil {
			return nil, fmt.Errorf("questions[%d]: %w", i, err)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("questions[%d]: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = true
	}
	return bank.Questions, nil
}

func parseJSONBank(data []byte) (Bank, error) {
	var bank Bank
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&bank); err != nil {
		return Bank{}, fmt.Errorf("parse json: %w", err)
	}
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return Bank{}, errors.New("parse json: multiple documents are not supported")
		}
		return Bank{}, fmt.Errorf("parse json: %w", err)
	}
	return bank, nil
}

func parseYAMLBank(data []byte) (Bank, error) {
	var bank Bank
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bank); err != nil {
		return Bank{}, fmt.Errorf("parse yaml: %w", err)
	}
	var extra yaml.Node
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return Bank{}, errors.New("parse yaml: multiple documents are not supported")
		}
		return Bank{}, fmt.Errorf("parse yaml: %w", err)
	}
	return bank, nil
}

// Validate checks the fields a session relies on.
func Validate(q Question) error {
	if strings.TrimSpace(q.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(q.Subject) == "" {
		return fmt.Errorf("%s: subject is required", q.ID)
	}
	if len(q.VisibleOptions()) == 0 {
		return fmt.Errorf("%s: at least one non-empty option is required", q.ID)
	}
	if _, err := ParseDifficulty(string(q.Difficulty)); err != nil {
		return fmt.Errorf("%s: %w", q.ID, err)
	}
	for _, k := range q.CorrectSet() {
		if k < 0 || k >= len(q.Options) {
			return fmt.Errorf("%s: answer index %d out of range", q.ID, k)
		}
	}
	if q.MaxSelections < 0 {
		return fmt.Errorf("%s: negative maxSelections", q.ID)
	}
	return nil
}
