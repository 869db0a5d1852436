package benchmark

import (
	"fmt"
	"testing"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/assembler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/expander"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/extractor"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
)

const structuredBody = `Students will learn to:

- Define matter and its properties
- List the three states of matter
- Describe changes of state

Matter is anything that has mass and occupies space.

Example: Boiling water
What happens to water particles when water boils?
Solution: The particles gain energy and escape as steam.
Explanation: Heating increases particle energy until the liquid becomes a gas.

Applications in Sierra Leone:

- Drying fish and cassava in the sun uses evaporation
- Salt production at coastal pans depends on changes of state`

func benchmarkChunks(n int) []curriculum.Chunk {
	chunks := make([]curriculum.Chunk, n)
	for i := range chunks {
		chunks[i] = curriculum.Chunk{
			ID:           fmt.Sprintf("chunk-%d", i),
			Subject:      curriculum.SubjectScience,
			Grade:        10,
			Topic:        "matter",
			SectionTitle: fmt.Sprintf("Chapter %d: States of Matter", i+1),
			Body:         structuredBody,
			Position:     i,
		}
	}
	return chunks
}

// BenchmarkAssemble measures full lesson assembly, including extraction of
// objectives, examples, and applications from every chunk body.
func BenchmarkAssemble(b *testing.B) {
	a := assembler.New(config.LessonsConfig{})
	for _, n := range []int{1, 3, 6} {
		chunks := benchmarkChunks(n)
		b.Run(fmt.Sprintf("chunks_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				lesson := a.Assemble(curriculum.SubjectScience, 10, "matter", "", chunks)
				_ = lesson
			}
		})
	}
}

func BenchmarkAssembleFallback(b *testing.B) {
	a := assembler.New(config.LessonsConfig{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		lesson := a.Fallback(curriculum.SubjectMath, "fractions")
		_ = lesson
	}
}

func BenchmarkExtractObjectives(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(structuredBody)))
	for i := 0; i < b.N; i++ {
		objectives := extractor.Objectives(structuredBody)
		_ = objectives
	}
}

func BenchmarkExtractExamples(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(structuredBody)))
	for i := 0; i < b.N; i++ {
		examples := extractor.Examples(structuredBody)
		_ = examples
	}
}

func BenchmarkExpand(b *testing.B) {
	topics := []string{"matter", "algebra", "photosynthesis", "letter writing", "states of matter"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, topic := range topics {
			terms := expander.Expand(topic)
			_ = terms
		}
	}
}
