/*package format handles hexatic's miniature formatting languages for frame
files, e.g:

   Frames = 0..100 - 63
   Input = "run{%02d,0}/frame.{%05d,frame}.txt"
   Output = "psi/frame.{%05d,frame}.psi"

File format strings are a combination of fixed text and variables. Fixed text
is always the same, and variables can change from file to file. Variables are
written as {verb,rule}. "verb" is a printf() verb (e.g. %03d) that specifies
how the variable should be printed. "rule" specifies what value the variable
takes on. There are currently two rules:

  "frame" - The variable is equal to the current frame.
  an integer - The variable is always equal to that integer.

Sequence formats are a generic way to specify non-contiguous sequences of
natural numbers. They consist of a series of n tokens separated by "+" or "-".
Each token can be either a number or two numbers separated by "..". E.g.:

  100
  0..100
  0..10 + 100
  0..100 - 63 - 10..20

These strings build up sequences of numbers by adding/removing individual
numbers and contiguous sequences. For example, 1, 2, 3, 15, 16, 17 could be
written as 1..17 - 4..14. This is useful for skipping corrupted frames.

All spaces around "-", "+", and "," symbols are ignored.
*/
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	h_error "github.com/phil-mansfield/hexatic/lib/error"
)

const (
	// Any expanded formats which would have more than BigNumber elements are
	// assumed to be bugs.
	BigNumber = 1<<20
)

// ExpandSequenceFormat expands a sequence format string into a sorted sequence
// of integers.
func ExpandSequenceFormat(format string) ([]int, error) {
	tok, err := tokeniseSequenceFormat(format)
	if err != nil { return nil, err }
	adds, subs, err := addsSubsSequenceFormat(tok)
	if err != nil { return nil, err }

	m := map[int]bool{ }
	for i := range adds {
		for _, n := range parseSequenceFormatToken(adds[i]) {
			if m[n] {
				return nil, fmt.Errorf("The number %d is added more than once.", n)
			}
			m[n] = true
		}
		if len(m) > BigNumber {
			return nil, fmt.Errorf("This sequence would have more than %d "+
				"elements, which is almost certainly a bug.", BigNumber)
		}
	}

	for i := range subs {
		for _, n := range parseSequenceFormatToken(subs[i]) {
			if !m[n] {
				return nil, fmt.Errorf("The number %d is removed more times "+
					"than it was inserted.", n)
			}
			delete(m, n)
		}
	}

	out := []int{ }
	for n := range m { out = append(out, n) }
	sort.Ints(out)

	return out, nil
}

// tokeniseSequenceFormat splits a sequence format string into numbers,
// ranges, and "+"/"-" operators.
func tokeniseSequenceFormat(format string) ([]string, error) {
	formatClean := strings.ReplaceAll(format, "+", " + ")
	formatClean = strings.ReplaceAll(formatClean, "-", " - ")

	tok := strings.Fields(formatClean)
	if len(tok) == 0 {
		return nil, fmt.Errorf("The format string is empty.")
	}
	return tok, nil
}

func addsSubsSequenceFormat(tok []string) (adds, subs []string, err error) {
	if len(tok) == 0 {
		return nil, nil, fmt.Errorf("Format string is empty")
	}

	// Handle the case where the starting "+" is dropped.
	adds, subs = []string{}, []string{}
	start := 0
	if tok[0] != "+" && tok[0] != "-" {
		if err := isSequenceFormatToken(tok[0]); err != nil {
			return nil, nil, fmt.Errorf(
				"Element number %d, '%s', cannot be parsed because %s",
				1, tok[0], err.Error(),
			)
		}
		adds = append(adds, tok[0])
		start = 1
	}

	for i := start; i < len(tok); i += 2 {
		if tok[i] != "-" && tok[i] != "+" {
			return nil, nil, fmt.Errorf(
				"Element number %d, '%s', should be a '-' or '+', but isn't.",
				i+1, tok[i])
		}

		if i + 1 >= len(tok) {
			return nil, nil, fmt.Errorf(
				"The format string ends in a trailing '%s'", tok[i],
			)
		}

		if err := isSequenceFormatToken(tok[i+1]); err != nil {
			return nil, nil, fmt.Errorf(
				"Element number %d, '%s', cannot be parsed because %s",
				i+2, tok[i+1], err.Error(),
			)
		}

		if tok[i] == "+" {
			adds = append(adds, tok[i+1])
		} else {
			subs = append(subs, tok[i+1])
		}
	}

	return adds, subs, nil
}

// isSequenceFormatToken returns a nil error if tok is a valid token for a
// sequence format and an error describing the problem otherwise. The error
// message assumes it is printed after a trailing "because".
func isSequenceFormatToken(tok string) error {
	if len(tok) == 0 {
		return fmt.Errorf("the format string is empty.")
	}

	bounds := strings.Split(tok, "..")

	switch len(bounds) {
	case 1:
		if _, err := strconv.Atoi(bounds[0]); err != nil {
			return fmt.Errorf("'%s' is not an integer.", bounds[0])
		}
		return nil
	case 2:
		start, err := strconv.Atoi(bounds[0])
		if err != nil {
			return fmt.Errorf("'%s' is not an integer.", bounds[0])
		}
		end, err := strconv.Atoi(bounds[1])
		if err != nil {
			return fmt.Errorf("'%s' is not an integer.", bounds[1])
		}
		if end < start {
			return fmt.Errorf("lower bound %d is larger than upper bound %d.",
				start, end)
		}
		if end - start >= BigNumber {
			return fmt.Errorf("the range %d..%d has more than %d elements.",
				start, end, BigNumber)
		}
		return nil
	}
	return fmt.Errorf("it has more than one '..'.")
}

// parseSequenceFormatToken parses a single token in a sequence format string
// and returns the corresponding array of numbers. The token must already have
// passed isSequenceFormatToken.
func parseSequenceFormatToken(tok string) []int {
	bounds := strings.Split(tok, "..")

	switch len(bounds) {
	case 1:
		n, _ := strconv.Atoi(tok)
		return []int{ n }
	case 2:
		start, _ := strconv.Atoi(bounds[0])
		end, _ := strconv.Atoi(bounds[1])
		out := make([]int, 0, end - start + 1)
		for n := start; n <= end; n++ { out = append(out, n) }
		return out
	}

	h_error.Internal(
		"Invalid sequence format token, '%s', passed isSequenceFormatToken()",
		tok,
	)
	return nil
}

// FileFormat is a parsed file format string. Separators[i] is the fixed text
// before variable i, and the last element of Separators is the text after the
// final variable.
type FileFormat struct {
	format     string
	Separators []string
	Verbs      []string
	Rules      []string
}

// ParseFileFormat parses and checks a file format string.
func ParseFileFormat(format string) (*FileFormat, error) {
	starts, ends, err := startsEndsFormatString(format)
	if err != nil { return nil, err }

	ff := &FileFormat{ format: format }
	sepStart := 0
	for i := range starts {
		ff.Separators = append(ff.Separators, format[sepStart: starts[i]])
		sepStart = ends[i]

		v := format[starts[i]+1: ends[i]-1]
		tok := strings.Split(v, ",")
		if len(tok) != 2 {
			return nil, fmt.Errorf("The file format '%s' has an invalid "+
				"variable, '{%s}'. Variables should contain a formatting verb "+
				"(e.g. '%%d', '%%03d'), a comma, and a rule ('frame' or an "+
				"integer).", format, v)
		}

		verb, rule := strings.TrimSpace(tok[0]), strings.TrimSpace(tok[1])
		if !isIntVerb(verb) {
			return nil, fmt.Errorf("The file format '%s' has a variable, "+
				"'{%s}', whose verb '%s' isn't an integer verb like '%%d' or "+
				"'%%04d'.", format, v, verb)
		}
		if _, err := strconv.Atoi(rule); rule != "frame" && err != nil {
			return nil, fmt.Errorf("The file format '%s' has a variable, "+
				"'{%s}', with the unknown rule '%s'. The only valid rules "+
				"are 'frame' and integers.", format, v, rule)
		}

		ff.Verbs = append(ff.Verbs, verb)
		ff.Rules = append(ff.Rules, rule)
	}
	ff.Separators = append(ff.Separators, format[sepStart:])

	return ff, nil
}

// isIntVerb returns true if verb is a printf verb for a single integer.
func isIntVerb(verb string) bool {
	if len(verb) < 2 || verb[0] != '%' { return false }
	switch verb[len(verb)-1] {
	case 'd', 'x', 'X', 'o', 'b':
	default:
		return false
	}
	for _, c := range verb[1:len(verb)-1] {
		if !strings.ContainsRune("0123456789+- ", c) { return false }
	}
	return true
}

// Expand returns the file name for a given frame.
func (ff *FileFormat) Expand(frame int) string {
	sb := &strings.Builder{ }
	for i := range ff.Verbs {
		sb.WriteString(ff.Separators[i])
		val := frame
		if ff.Rules[i] != "frame" { val, _ = strconv.Atoi(ff.Rules[i]) }
		fmt.Fprintf(sb, ff.Verbs[i], val)
	}
	sb.WriteString(ff.Separators[len(ff.Separators) - 1])
	return sb.String()
}

func (ff *FileFormat) String() string { return ff.format }

// ExpandFileFormat returns the file name that format gives for frame.
func ExpandFileFormat(format string, frame int) (string, error) {
	ff, err := ParseFileFormat(format)
	if err != nil { return "", err }
	return ff.Expand(frame), nil
}

// startsEndsFormatString returns the indices of the beginning and end of each
// format variable.
func startsEndsFormatString(format string) (starts, ends []int, err error) {
	starts, ends = []int{ }, []int{ }
	nestedLevel := 0

	ending := "Make sure variables in file formats are enclosed in " +
		"matching { ... } pairs."

	for i := range format {
		if format[i] == '{' {
			nestedLevel++
			starts = append(starts, i)
		} else if format[i] == '}' {
			nestedLevel--
			ends = append(ends, i+1)
		}

		if nestedLevel > 1 {
			end := len(starts) - 1
			return nil, nil, fmt.Errorf("The file format '%s' has nested "+
				"'{' characters at indices %d and %d. " + ending,
				format, starts[end-1], starts[end])
		} else if nestedLevel < 0 {
			return nil, nil, fmt.Errorf("The file format '%s' has a '}' "+
				"that doesn't come after a '{' at index %d. " + ending,
				format, i)
		}
	}

	if len(ends) != len(starts) {
		return nil, nil, fmt.Errorf("The file format '%s' has a '{' "+
			"without a matching '}' at index %d. " + ending,
			format, starts[len(starts) - 1])
	}

	return starts, ends, nil
}
