package bars

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayBar(day int, high, low float64) Bar {
	return Bar{
		Timestamp: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Open:      (high + low) / 2,
		High:      high,
		Low:       low,
		Close:     (high + low) / 2,
	}
}

func TestClassifyAssignsExactlyOneClass(t *testing.T) {
	f := Frame{
		dayBar(1, 100, 90),
		dayBar(2, 99, 91),  // inside
		dayBar(3, 105, 89), // outside
		dayBar(4, 106, 90), // higher high, low not lower -> 2U
		dayBar(5, 104, 88), // lower low, high not higher -> 2D
	}
	classes := Classify(f)
	require.Len(t, classes, len(f))

	assert.Equal(t, ClassNone, classes[0])
	assert.Equal(t, ClassInside, classes[1])
	assert.Equal(t, ClassOutside, classes[2])
	assert.Equal(t, ClassUp, classes[3])
	assert.Equal(t, ClassDown, classes[4])
}

func TestClassifyEqualExtremesAreInside(t *testing.T) {
	// Identical high/low is inside, never directional: 2U and 2D demand
	// strict inequality.
	f := Frame{
		dayBar(1, 100, 90),
		dayBar(2, 100, 90),
	}
	classes := Classify(f)
	assert.Equal(t, ClassInside, classes[1])
}

func TestClassifyEveryBarBeyondFirst(t *testing.T) {
	f := Frame{
		dayBar(1, 10, 9),
		dayBar(2, 11, 9.5),
		dayBar(3, 12, 8),
		dayBar(4, 11.5, 8.5),
	}
	classes := Classify(f)
	for i := 1; i < len(f); i++ {
		assert.Contains(t, []Class{ClassInside, ClassUp, ClassDown, ClassOutside}, classes[i], "bar %d", i)
	}
}

func TestClassSign(t *testing.T) {
	assert.Equal(t, 1, ClassUp.Sign())
	assert.Equal(t, -1, ClassDown.Sign())
	assert.Equal(t, 0, ClassInside.Sign())
	assert.Equal(t, 0, ClassOutside.Sign())
	assert.Equal(t, 0, ClassNone.Sign())
}

func TestFrameNormalize(t *testing.T) {
	f := Frame{
		dayBar(3, 10, 9),
		dayBar(1, 10, 9),
		dayBar(3, 99, 1), // duplicate timestamp, first occurrence wins
		dayBar(2, 10, 9),
	}
	n := f.Normalize()
	require.Len(t, n, 3)
	assert.True(t, n[0].Timestamp.Before(n[1].Timestamp))
	assert.True(t, n[1].Timestamp.Before(n[2].Timestamp))
	assert.Equal(t, 10.0, n[2].High, "first duplicate should win")
}

func TestMedianSpacing(t *testing.T) {
	var f Frame
	for h := 0; h < 6; h++ {
		f = append(f, Bar{Timestamp: time.Date(2024, 1, 2, 9+h, 30, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1})
	}
	assert.Equal(t, time.Hour, f.MedianSpacing())

	assert.Equal(t, time.Duration(0), Frame{}.MedianSpacing())
	assert.Equal(t, time.Duration(0), f[:2].MedianSpacing())
}
