package utils

import (
	"fmt"
	"math"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used across the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
	WarningMessage
)

// Colors used across the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
	WarningColor = "\x1b[33m"
)

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	StatusMessage:  StatusColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	WarningMessage: WarningColor,
}

// DecorateText shows the message types in different colors.
// Unknown message types are returned unchanged.
func DecorateText(s string, msgType MessageType) string {
	color, ok := messageColors[msgType]
	if !ok {
		return s
	}
	return color + s + DefaultColor
}

// Status prefixes msg with a highlighted label, e.g. "⚡ KANJIDRILL ⇢ done".
func Status(label, msg string, msgType MessageType) string {
	return fmt.Sprintf("%s %s", DecorateText(label, StatusMessage), DecorateText(msg, msgType))
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	var (
		secs  = math.Mod(d.Seconds(), 60)
		mins  = int64((d % time.Hour) / time.Minute)
		hours = int64((d % (24 * time.Hour)) / time.Hour)
		days  = int64(d / (24 * time.Hour))
	)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %.2fs", mins, secs)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm %.2fs", hours, mins, secs)
	}
	return fmt.Sprintf("%dd %dh %dm %.2fs", days, hours, mins, secs)
}
