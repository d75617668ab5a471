package config

import (
	"strconv"
	"strings"
	"time"
)

// Arguments are the positional options of the node tile:
// "showTimezone,showISP,timeoutSeconds", e.g. "true,false,10".
type Arguments struct {
	ShowTimezone bool
	ShowISP      bool
	Timeout      time.Duration
}

// DefaultArguments matches an empty argument string.
func DefaultArguments() Arguments {
	return Arguments{ShowTimezone: true, ShowISP: true, Timeout: DefaultTimeout}
}

// ParseArgument interprets the argument string positionally. Booleans are
// true unless spelled "false"; the timeout keeps its default when missing,
// non-numeric or not positive.
func ParseArgument(s string) Arguments {
	args := DefaultArguments()
	if strings.TrimSpace(s) == "" {
		return args
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	at := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	args.ShowTimezone = at(0) != "false"
	args.ShowISP = at(1) != "false"
	if n := leadingInt(at(2)); n > 0 {
		args.Timeout = time.Duration(n) * time.Second
	}
	return args
}

// leadingInt parses the leading decimal digits of s, so "20s" yields 20.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
