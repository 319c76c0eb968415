package markdown

import "strings"

var exampleMarkers = []string{
	"hypothetical", "not the actual", "this is not", "not a real",
	"example only", "example type", "example interface", "example struct",
	"example version", "example pattern", "illustration only",
	"not an actual", "shown for illustration",
}

var proseExamplePhrases = []string{
	"this is an example", "example:", "example code", "example only",
	"example type", "example interface",
}

var examplePrefixes = []string{"Example", "Hypothetical", "Mock", "Test"}

const (
	proseWindow = 10
	codeWindow  = 5
)

// IsExampleDecl reports whether the declaration name on file line declLine,
// inside fence, is illustrative rather than part of the documented API.
// heading is the text of the nearest heading above the fence.
func IsExampleDecl(lines []string, fence Fence, heading string, declLine int, name string) bool {
	if headingSuggestsExample(heading) {
		return true
	}
	if proseSuggestsExample(lines, fence.Start) {
		return true
	}
	from := max(fence.Start+1, declLine-codeWindow)
	for n := from; n < declLine; n++ {
		if n-1 < len(lines) && codeLineSuggestsExample(strings.ToLower(lines[n-1])) {
			return true
		}
	}
	return IsExampleName(name)
}

// IsExampleName reports whether a declared name marks illustrative code.
func IsExampleName(name string) bool {
	for _, p := range examplePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func containsMarker(lower string) bool {
	for _, m := range exampleMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func headingSuggestsExample(heading string) bool {
	lower := strings.ToLower(heading)
	return containsMarker(lower) || strings.Contains(lower, "example")
}

func proseSuggestsExample(lines []string, fenceLine int) bool {
	for n := max(1, fenceLine-proseWindow); n < fenceLine; n++ {
		if n-1 >= len(lines) {
			break
		}
		trimmed := strings.TrimSpace(lines[n-1])
		if trimmed == "" || strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lower := strings.ToLower(trimmed)
		if containsMarker(lower) {
			return true
		}
		for _, p := range proseExamplePhrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	return false
}

func codeLineSuggestsExample(lower string) bool {
	if containsMarker(lower) {
		return true
	}
	if !strings.Contains(lower, "example") {
		return false
	}
	return !strings.Contains(lower, "for example") || strings.Contains(lower, "// example")
}
