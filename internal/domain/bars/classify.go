package bars

// Class is the four-state STRAT taxonomy applied to a bar relative to the
// immediately preceding bar. The first bar of a frame is unclassified.
type Class string

const (
	ClassNone    Class = ""
	ClassInside  Class = "1"
	ClassUp      Class = "2U"
	ClassDown    Class = "2D"
	ClassOutside Class = "3"
)

// Sign maps a classification to its directional contribution: +1 for 2U,
// -1 for 2D, 0 for inside, outside, and absent.
func (c Class) Sign() int {
	switch c {
	case ClassUp:
		return 1
	case ClassDown:
		return -1
	}
	return 0
}

// Directional reports whether the class is 2U or 2D.
func (c Class) Directional() bool {
	return c == ClassUp || c == ClassDown
}

// Classify assigns a class to every bar from index 1 onward. The result is
// index-aligned with the frame; index 0 is ClassNone. Equal highs and lows
// never fire a directional class: 2U requires a strictly higher high, 2D a
// strictly lower low.
func Classify(f Frame) []Class {
	classes := make([]Class, len(f))
	for i := 1; i < len(f); i++ {
		prev, curr := f[i-1], f[i]
		switch {
		case curr.High <= prev.High && curr.Low >= prev.Low:
			classes[i] = ClassInside
		case curr.High > prev.High && curr.Low < prev.Low:
			classes[i] = ClassOutside
		case curr.High > prev.High:
			classes[i] = ClassUp
		case curr.Low < prev.Low:
			classes[i] = ClassDown
		}
	}
	return classes
}
