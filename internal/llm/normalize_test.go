package llm

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			"fenced json block",
			"Here is the result:\n```json\n{\"keep\": []}\n```\nDone.",
			`{"keep": []}`, nil,
		},
		{
			"fenced block without language tag",
			"```\n{\"keep\": []}\n```",
			`{"keep": []}`, nil,
		},
		{
			"first to last brace",
			`prefix {"keep": [{"id": "p1-1"}]} suffix`,
			`{"keep": [{"id": "p1-1"}]}`, nil,
		},
		{
			"no json at all",
			"I could not process the input.",
			"", ErrNoJSON,
		},
		{
			"closing before opening",
			"} broken {",
			"", ErrNoJSON,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeTextDecisions(t *testing.T) {
	raw := "```json\n" + `{
		"keep": [
			{"id": "p1-1", "section_heading": " Intro ", "confidence": 1.7},
			{"id": "p1-2", "confidence": -0.4, "possible_boilerplate": "yes"},
			{"id": "", "note": "dropped, no id"},
			{"id": "p2-1", "confidence": "high", "possible_boilerplate": 1}
		],
		"warnings": ["  low ocr quality ", "", 42]
	}` + "\n```"

	got, err := NormalizeTextDecisions(raw)
	if err != nil {
		t.Fatalf("NormalizeTextDecisions: %v", err)
	}
	if len(got.Keep) != 3 {
		t.Fatalf("kept %d decisions, want 3: %+v", len(got.Keep), got.Keep)
	}

	first := got.Keep[0]
	if first.ID != "p1-1" || first.SectionHeading != "Intro" {
		t.Fatalf("first = %+v", first)
	}
	if first.Confidence == nil || *first.Confidence != 1.0 {
		t.Fatalf("confidence not clamped to 1.0: %+v", first.Confidence)
	}

	second := got.Keep[1]
	if second.Confidence == nil || *second.Confidence != 0.0 {
		t.Fatalf("confidence not clamped to 0.0: %+v", second.Confidence)
	}
	if !second.PossibleBoilerplate {
		t.Fatal(`"yes" did not coerce to true`)
	}

	third := got.Keep[2]
	if third.ID != "p2-1" || third.Confidence != nil {
		t.Fatalf("non-numeric confidence should drop: %+v", third)
	}
	if !third.PossibleBoilerplate {
		t.Fatal("numeric 1 did not coerce to true")
	}

	if len(got.Warnings) != 1 || got.Warnings[0] != "low ocr quality" {
		t.Fatalf("warnings = %v", got.Warnings)
	}
}

func TestNormalizeTextDecisionsMissingKeep(t *testing.T) {
	_, err := NormalizeTextDecisions(`{"paragraphs": []}`)
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("err = %v, want ErrMissingKey", err)
	}
}

func TestNormalizeTextDecisionsKeepWrongShape(t *testing.T) {
	_, err := NormalizeTextDecisions(`{"keep": "all of them"}`)
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("err = %v, want ErrMissingKey", err)
	}
}

func TestNormalizeTextDecisionsEmptyKeep(t *testing.T) {
	got, err := NormalizeTextDecisions(`{"keep": []}`)
	if err != nil {
		t.Fatalf("empty keep must be a valid result: %v", err)
	}
	if len(got.Keep) != 0 {
		t.Fatalf("got %+v", got.Keep)
	}
}

func TestNormalizeVisionDecisions(t *testing.T) {
	raw := `{
		"paragraphs": [
			{"text": " The scanned page opens with a summary of the findings. ", "confidence": 0.8},
			{"text": "   "},
			{"text": "A second paragraph follows the table."}
		],
		"warnings": ["image resolution is low"]
	}`
	got, err := NormalizeVisionDecisions(raw)
	if err != nil {
		t.Fatalf("NormalizeVisionDecisions: %v", err)
	}
	if len(got.Paragraphs) != 2 {
		t.Fatalf("kept %d paragraphs, want 2", len(got.Paragraphs))
	}
	if got.Paragraphs[0].Text != "The scanned page opens with a summary of the findings." {
		t.Fatalf("text not trimmed: %q", got.Paragraphs[0].Text)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("warnings = %v", got.Warnings)
	}
}

func TestNormalizeVisionDecisionsMissingParagraphs(t *testing.T) {
	_, err := NormalizeVisionDecisions(`{"keep": []}`)
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("err = %v, want ErrMissingKey", err)
	}
}
