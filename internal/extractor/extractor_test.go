package extractor

import (
	"reflect"
	"testing"
)

const chemistryBody = `Matter is anything that has mass and occupies space.

Students will learn to:
- Define matter and its three states
- Describe how particles behave in each state
- Explain changes of state using the particle model
- Identify examples of each state in daily life

## Key Ideas

- Solids have a fixed shape and volume
- Liquids take the shape of their container
- Gases fill all available space

Example: Boiling water
What happens to water particles when water boils at 100 degrees Celsius?
Solution: The particles gain energy and move apart, turning liquid water into steam.
Explanation: Heating increases particle energy until the liquid changes state.

Applications in Sierra Leone:
- Salt production by evaporation at the coast
- Drying cassava in the sun`

func TestObjectives(t *testing.T) {
	got := Objectives(chemistryBody)
	want := []string{
		"Define matter and its three states",
		"Describe how particles behave in each state",
		"Explain changes of state using the particle model",
		"Identify examples of each state in daily life",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Objectives() = %v, want %v", got, want)
	}
}

func TestObjectivesIdempotent(t *testing.T) {
	first := Objectives(chemistryBody)
	second := Objectives(chemistryBody)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated extraction differs: %v vs %v", first, second)
	}
}

func TestObjectivesMissingMarker(t *testing.T) {
	got := Objectives("Just a paragraph of text.\n- with a bullet\n")
	if len(got) != 0 {
		t.Fatalf("expected no objectives without marker, got %v", got)
	}
}

func TestObjectivesStopAtBlankLine(t *testing.T) {
	body := "Students will learn to:\n- First objective\n\n- Unrelated bullet"
	got := Objectives(body)
	if len(got) != 1 || got[0] != "First objective" {
		t.Fatalf("expected only the first objective, got %v", got)
	}
}

func TestKeyConceptsExcludeObjectives(t *testing.T) {
	got := KeyConcepts(chemistryBody)
	for _, concept := range got {
		if concept == "Define matter and its three states" {
			t.Fatalf("objective leaked into key concepts: %v", got)
		}
	}
	found := false
	for _, concept := range got {
		if concept == "Solids have a fixed shape and volume" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected key idea bullet in concepts, got %v", got)
	}
}

func TestExamplesSolutionSplit(t *testing.T) {
	examples := Examples(chemistryBody)
	if len(examples) != 1 {
		t.Fatalf("expected 1 example, got %d", len(examples))
	}
	ex := examples[0]
	if ex.Title != "Boiling water" {
		t.Errorf("title = %q, want %q", ex.Title, "Boiling water")
	}
	if ex.Problem == "" || ex.Solution == "" {
		t.Fatalf("expected problem and solution, got %+v", ex)
	}
	if ex.Explanation == "" {
		t.Errorf("expected explanation to be extracted, got %+v", ex)
	}
}

func TestExamplesQuestionMarkSplit(t *testing.T) {
	body := "For instance, a farmer has 12 acres. How many acres is one third? It is 4 acres."
	examples := Examples(body)
	if len(examples) != 1 {
		t.Fatalf("expected 1 example, got %d", len(examples))
	}
	if examples[0].Problem == "" || examples[0].Solution == "" {
		t.Fatalf("expected question split into problem/solution, got %+v", examples[0])
	}
}

func TestExamplesNoMarker(t *testing.T) {
	if got := Examples("Plain text without markers."); len(got) != 0 {
		t.Fatalf("expected no examples, got %v", got)
	}
}

func TestExamplesNoSolutionMarker(t *testing.T) {
	body := "Example: an unfinished worked example with no answer given."
	examples := Examples(body)
	if len(examples) != 1 {
		t.Fatalf("expected 1 example, got %d", len(examples))
	}
	if examples[0].Solution != "" {
		t.Fatalf("expected empty solution, got %q", examples[0].Solution)
	}
}

func TestApplications(t *testing.T) {
	got := Applications(chemistryBody)
	want := []string{
		"Salt production by evaporation at the coast",
		"Drying cassava in the sun",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Applications() = %v, want %v", got, want)
	}
}

func TestExtractorsTotalOnGarbage(t *testing.T) {
	inputs := []string{"", "\n\n\n", "::::", "- ", "Students will learn to:"}
	for _, input := range inputs {
		Objectives(input)
		KeyConcepts(input)
		Examples(input)
		Applications(input)
	}
}
