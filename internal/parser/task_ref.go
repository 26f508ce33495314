package parser

import (
	"regexp"
	"strconv"
)

// "task", at most one separator that is neither a letter, digit nor space, then digits
var taskRefRegex = regexp.MustCompile(`(?i)task[^a-z0-9\s]?(\d+)`)

// ExtractTaskRef finds the Taiga task number referenced in a commit message.
// Only the first reference counts:
// - "Fixed Task-42 bug" -> 42
// - "Task#7 done" -> 7
// - "no ref here" -> nil
func ExtractTaskRef(message string) (*int, *Anomaly) {
	match := taskRefRegex.FindStringSubmatch(message)
	if match == nil {
		return nil, nil
	}

	num, err := strconv.Atoi(match[1])
	if err != nil {
		// digit run too long for an int
		return nil, anomaly("task_num", match[0], "task number out of range")
	}
	return &num, nil
}

// HasTaskRef reports whether a commit message references a task
func HasTaskRef(message string) bool {
	return taskRefRegex.MatchString(message)
}
