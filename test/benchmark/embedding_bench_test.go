// Package benchmark contains Go benchmarks for the embedding, extraction,
// and lesson assembly pipeline, measuring throughput and allocation
// behaviour.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/embedding"
)

var sampleBodies = map[string]string{
	"short": "Matter is anything that has mass and occupies space.",
	"medium": `Matter exists in three states: solid, liquid, and gas. Particles in a
        solid vibrate in fixed positions, particles in a liquid slide past one
        another, and particles in a gas move freely. Heating a substance gives
        its particles more energy, which can change its state. Water boiling
        into steam and ice melting into water are everyday examples students
        can observe at home or in the market.`,
	"long": strings.Repeat(`Photosynthesis is the process by which green plants make
        their own food. Chlorophyll in the leaves absorbs sunlight, and the plant
        combines carbon dioxide from the air with water from the soil to produce
        glucose and oxygen. Farmers in Sierra Leone depend on this process for
        cassava, rice, and groundnut crops. Factors that affect the rate of
        photosynthesis include light intensity, carbon dioxide concentration,
        and temperature. `, 20),
}

func BenchmarkEmbed(b *testing.B) {
	embedder := embedding.NewHashingEmbedder(embedding.DefaultDim)
	for name, text := range sampleBodies {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				vec := embedder.Embed(text)
				_ = vec
			}
		})
	}
}

func BenchmarkEmbedParallel(b *testing.B) {
	embedder := embedding.NewHashingEmbedder(embedding.DefaultDim)
	text := sampleBodies["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			vec := embedder.Embed(text)
			_ = vec
		}
	})
}

func BenchmarkEmbedVaryingDim(b *testing.B) {
	text := sampleBodies["medium"]
	for _, dim := range []int{64, 128, 256, 512} {
		embedder := embedding.NewHashingEmbedder(dim)
		b.Run(fmt.Sprintf("dim_%d", dim), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				vec := embedder.Embed(text)
				_ = vec
			}
		})
	}
}

// BenchmarkCosine measures similarity scoring at the candidate-ranking hot
// path, where one query vector is compared against every stored embedding.
func BenchmarkCosine(b *testing.B) {
	for _, dim := range []int{64, 256, 512} {
		embedder := embedding.NewHashingEmbedder(dim)
		query := embedder.Embed(sampleBodies["short"])
		candidate := embedder.Embed(sampleBodies["medium"])
		b.Run(fmt.Sprintf("dim_%d", dim), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				score := embedding.Cosine(query, candidate)
				_ = score
			}
		})
	}
}

func BenchmarkTerms(b *testing.B) {
	text := sampleBodies["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		terms := embedding.Terms(text)
		_ = terms
	}
}
