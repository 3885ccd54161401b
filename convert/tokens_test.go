package convert

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"  ", 0},
		{"a b", 2},
		{"a,b", 3},
		{"hello", 1},
		{"hello_world", 1},
		{"user42", 1},
		{`{"id":1}`, 7},
		{"id: 1\n", 3},
		{"héllo wörld", 2},
		{"\t\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateTokensDeterministic(t *testing.T) {
	text := `users[2]{id,name}:
  1,Alice
  2,Bob`
	first := EstimateTokens(text)
	for i := 0; i < 10; i++ {
		if got := EstimateTokens(text); got != first {
			t.Fatalf("run %d: got %d, want %d", i, got, first)
		}
	}
}
