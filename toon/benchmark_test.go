package toon

import (
	"fmt"
	"testing"
)

// tabularPayload is a wide uniform array, the shape TOON compresses best.
func tabularPayload(rows int) map[string]any {
	items := make([]any, rows)
	for i := range items {
		items[i] = map[string]any{
			"id":     int64(i),
			"sku":    fmt.Sprintf("SKU-%05d", i),
			"price":  float64(i) * 1.25,
			"active": i%2 == 0,
		}
	}
	return map[string]any{
		"catalog": map[string]any{"region": map[string]any{"name": "eu-west"}},
		"items":   items,
	}
}

func BenchmarkEncodeTabular(b *testing.B) {
	for _, delim := range []string{DelimiterComma, DelimiterTab, DelimiterPipe} {
		b.Run(fmt.Sprintf("delimiter=%q", delim), func(b *testing.B) {
			data := tabularPayload(500)
			opts := DefaultEncodeOptions()
			opts.Delimiter = delim

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := EncodeWithOptions(data, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEncodeKeyFolding(b *testing.B) {
	data := tabularPayload(50)
	opts := DefaultEncodeOptions()
	opts.KeyFolding = true

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeWithOptions(data, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeStrict(b *testing.B) {
	encoded, err := Encode(tabularPayload(500))
	if err != nil {
		b.Fatal(err)
	}
	opts := DefaultDecodeOptions()

	b.ReportAllocs()
	b.SetBytes(int64(len(encoded)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeWithOptions(encoded, opts); err != nil {
			b.Fatal(err)
		}
	}
}
