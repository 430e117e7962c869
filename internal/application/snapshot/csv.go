package snapshot

import (
	"bytes"
	"encoding/csv"
)

func marshalCSV(header []string, n int, record func(i int) []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	for i := 0; i < n; i++ {
		_ = w.Write(record(i))
	}
	w.Flush()
	return buf.Bytes()
}
