package briefing

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/BaSui01/warmtransfer/types"
)

var errNoJSON = errors.New("no JSON value in model output")

var categories = map[string]bool{
	"billing":   true,
	"technical": true,
	"sales":     true,
	"support":   true,
	"complaint": true,
}

var intents = map[string]bool{
	"question":    true,
	"complaint":   true,
	"compliment":  true,
	"request":     true,
	"information": true,
	"other":       true,
}

// extractJSON returns the outermost JSON value delimited by open/close,
// ignoring markdown code fences and surrounding prose.
func extractJSON(s string, open, close byte) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

func parseAnalysis(text string) (types.CallAnalysis, error) {
	raw, err := extractJSON(text, '{', '}')
	if err != nil {
		return types.CallAnalysis{}, err
	}
	var wire struct {
		Summary           string   `json:"summary"`
		KeyPoints         []string `json:"keyPoints"`
		CustomerSentiment string   `json:"customerSentiment"`
		Urgency           string   `json:"urgency"`
		Category          string   `json:"category"`
		ActionItems       []string `json:"actionItems"`
		TransferReason    string   `json:"transferReason"`
		RecommendedAgent  string   `json:"recommendedAgent"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return types.CallAnalysis{}, err
	}
	if strings.TrimSpace(wire.Summary) == "" {
		return types.CallAnalysis{}, errors.New("analysis without summary")
	}

	category := strings.ToLower(strings.TrimSpace(wire.Category))
	if !categories[category] {
		category = "support"
	}
	return types.CallAnalysis{
		Summary:           strings.TrimSpace(wire.Summary),
		KeyPoints:         nonNil(wire.KeyPoints),
		CustomerSentiment: types.ParseSentiment(strings.ToLower(strings.TrimSpace(wire.CustomerSentiment))),
		Urgency:           types.ParseUrgency(strings.ToLower(strings.TrimSpace(wire.Urgency))),
		Category:          category,
		ActionItems:       nonNil(wire.ActionItems),
		TransferReason:    strings.TrimSpace(wire.TransferReason),
		RecommendedAgent:  strings.TrimSpace(wire.RecommendedAgent),
	}, nil
}

func parseBriefing(text string) (types.Briefing, error) {
	raw, err := extractJSON(text, '{', '}')
	if err != nil {
		return types.Briefing{}, err
	}
	var b types.Briefing
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return types.Briefing{}, err
	}
	b.Degraded = false
	if b.BriefSummary == "" && b.SpokenHandoff == "" && b.WrittenNotes == "" {
		return types.Briefing{}, errors.New("briefing without content")
	}
	return b, nil
}

func parseSentiment(text string) (types.SentimentResult, error) {
	raw, err := extractJSON(text, '{', '}')
	if err != nil {
		return types.SentimentResult{}, err
	}
	var wire struct {
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
		Intent     string  `json:"intent"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return types.SentimentResult{}, err
	}

	conf := wire.Confidence
	switch {
	case conf < 0:
		conf = 0
	case conf > 1:
		conf = 1
	}
	intent := strings.ToLower(strings.TrimSpace(wire.Intent))
	if !intents[intent] {
		intent = "other"
	}
	return types.SentimentResult{
		Sentiment:  types.ParseSentiment(strings.ToLower(strings.TrimSpace(wire.Sentiment))),
		Confidence: conf,
		Intent:     intent,
	}, nil
}

// parseSuggestions returns exactly three suggestions, padding from the
// fallback templates when the model returned fewer.
func parseSuggestions(text string) ([]string, error) {
	raw, err := extractJSON(text, '[', ']')
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}

	out := make([]string, 0, 3)
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == 3 {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no suggestions")
	}
	for i := 0; len(out) < 3; i++ {
		out = append(out, fallbackSuggestions[i])
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
