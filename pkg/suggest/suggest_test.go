package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		query  string
		want   []string
	}{
		{
			name:  "single topic padded with generic",
			query: "how much does it cost",
			want: []string{
				"How do I request a proposal?",
				"What affects the cost of an implementation?",
				"What services does Atlas Technosoft offer?",
			},
		},
		{
			name:   "topics in bucket order",
			answer: "Our RPA bots plug into SAP Business One.",
			query:  "tell me about automation",
			want: []string{
				"What modules does SAP Business One include?",
				"How long does an SAP Business One implementation take?",
				"Which processes are good candidates for automation?",
			},
		},
		{
			name:  "nothing matched",
			query: "hello there",
			want: []string{
				"What services does Atlas Technosoft offer?",
				"How can I contact your team?",
				"Can I schedule a consultation with a specialist?",
			},
		},
		{
			name:  "skips the question being asked",
			query: "What services does Atlas Technosoft offer?",
			want: []string{
				"How can I contact your team?",
				"Can I schedule a consultation with a specialist?",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.answer, tt.query))
		})
	}
}
